package config

import (
	"fmt"
	"slices"
)

// List names a title ID list in the settings file.
type List string

const (
	Blacklist List = "blacklist"
	Whitelist List = "whitelist"
)

func (v *Values) list(l List) (*[]string, error) {
	switch l {
	case Blacklist:
		return &v.Blacklist, nil
	case Whitelist:
		return &v.Whitelist, nil
	default:
		return nil, fmt.Errorf("%w: %s", ErrUnknownKey, l)
	}
}

// Add appends id to list l. Adding an ID twice is a no-op.
func (c *Instance) Add(l List, id string) error {
	return c.Update(func(v *Values) error {
		ids, err := v.list(l)
		if err != nil {
			return err
		}
		if !slices.Contains(*ids, id) {
			*ids = append(*ids, id)
		}
		return nil
	})
}

// Remove deletes id from list l.
func (c *Instance) Remove(l List, id string) error {
	return c.Update(func(v *Values) error {
		ids, err := v.list(l)
		if err != nil {
			return err
		}
		*ids = slices.DeleteFunc(*ids, func(s string) bool { return s == id })
		return nil
	})
}
