package app

import (
	"fmt"
	"os/user"
	"strconv"

	"lycheesync/internal/config"
)

// resolveOwner maps the configured user and group names to numeric ids.
// An empty name resolves to -1, which leaves that id unchanged.
func resolveOwner(cfg config.OwnerConfig) (uid, gid int, err error) {
	uid, gid = -1, -1

	if cfg.User != "" {
		u, err := user.Lookup(cfg.User)
		if err != nil {
			return -1, -1, fmt.Errorf("looking up user %s: %w", cfg.User, err)
		}
		if uid, err = strconv.Atoi(u.Uid); err != nil {
			return -1, -1, fmt.Errorf("user %s has non-numeric uid %q", cfg.User, u.Uid)
		}
	}

	if cfg.Group != "" {
		g, err := user.LookupGroup(cfg.Group)
		if err != nil {
			return -1, -1, fmt.Errorf("looking up group %s: %w", cfg.Group, err)
		}
		if gid, err = strconv.Atoi(g.Gid); err != nil {
			return -1, -1, fmt.Errorf("group %s has non-numeric gid %q", cfg.Group, g.Gid)
		}
	}

	return uid, gid, nil
}
