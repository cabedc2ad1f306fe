/*
The sync package implements the syncb run orchestrator. A run holds the global
lock for its whole duration and moves through a fixed sequence:

 1. Acquire the lock token (reclaiming stale or abandoned tokens).
 2. Check preconditions: cloud mount present, remote root reachable and
    writable, enough free disk space, rsync available.
 3. Transfer each resolved item through rsync, continuing past per-item
    failures and aggregating the itemized reports into statistics.
 4. Optionally run the secondary crypto phase against its own root pair.
 5. Run the symlink phase: capture link metadata on upload, recreate links
    from metadata on download.
 6. Release the lock and clean up temporary files. This step runs on every
    exit path, including fatal errors and termination signals.

Only whole-run exclusivity needs locking; within a run everything is
sequential, and the only suspension points are the rsync subprocesses.
*/
package sync
