package symlinks

import "strings"

// MetadataFile is the fixed name of the symlink metadata file, both in the
// remote root and in the local root while a download is in flight.
const MetadataFile = ".syncb_symlinks.meta"

// homePlaceholder stands in for "the synchronizing user's home directory" in
// metadata records, so that links survive the trip between machines with
// different usernames.
const homePlaceholder = "/home/$USERNAME"

// MakePortable rewrites a raw symlink target into its portable form. Two
// fixed rules apply: a target under localRoot has that prefix replaced by the
// placeholder, and a target under any other user's home has its first two
// path segments replaced. Anything else (relative targets, paths outside any
// home) passes through verbatim.
func MakePortable(target, localRoot string) string {
	if strings.HasPrefix(target, localRoot) {
		return homePlaceholder + strings.TrimPrefix(target, localRoot)
	}

	if strings.HasPrefix(target, "/home/") {
		parts := strings.Split(target, "/")
		if len(parts) >= 3 {
			return homePlaceholder + "/" + strings.Join(parts[3:], "/")
		}
	}
	return target
}

// ExpandPortable is the inverse transform applied on the downloading machine:
// the placeholder prefix becomes localRoot, and any stray placeholder
// occurrence elsewhere in the target gets the invoking user's name.
func ExpandPortable(target, localRoot, username string) string {
	if strings.HasPrefix(target, homePlaceholder) {
		return localRoot + strings.TrimPrefix(target, homePlaceholder)
	}
	return strings.ReplaceAll(target, "$USERNAME", username)
}
