package sync

import (
	"strings"

	"github.com/sidkik/syncb/pkg/config"
	"github.com/sidkik/syncb/pkg/errors"
)

// resolveItems picks the item list for this run: explicit CLI items win, then
// the per-host list from the config, then the config's default list. The
// selected host entry's exclude patterns are returned alongside, and apply
// even when the item list came from the CLI. Every item is validated before
// any filesystem access happens.
func resolveItems(cfg config.Config, hostname string, explicit []string) (items, hostExcludes []string, err error) {
	host, hostErr := cfg.HostItems(hostname)
	if hostErr == nil {
		hostExcludes = host.Exclude
	}

	items = explicit
	if len(items) == 0 {
		if hostErr != nil {
			return nil, nil, hostErr
		}
		items = host.Items
	}

	for _, item := range items {
		if err := validateItem(item); err != nil {
			return nil, nil, err
		}
	}
	return items, hostExcludes, nil
}

// validateItem rejects item paths that could resolve outside the sync root.
func validateItem(item string) error {
	if item == "" {
		return errors.New("empty sync item")
	}
	if strings.HasPrefix(item, "/") {
		return errors.NewFriendlyError(
			"Sync items must be relative paths, got %q.", item)
	}
	for _, segment := range strings.Split(item, "/") {
		if segment == ".." {
			return errors.NewFriendlyError(
				"Sync items must not contain \"..\", got %q.", item)
		}
	}
	return nil
}
