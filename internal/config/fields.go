package config

import (
	"strconv"
	"strings"

	"github.com/cockroachdb/errors"
)

type FieldKind int

const (
	FieldText FieldKind = iota
	FieldBool
)

// Field describes one user-editable setting.
type Field struct {
	Key   string
	Label string
	Kind  FieldKind
}

var fields = []Field{
	{Key: "btr_pool_dir", Label: "BTR Pool Directory", Kind: FieldText},
	{Key: "snapshots_dir", Label: "Snapshots Directory", Kind: FieldText},
	{Key: "auto_cleanup", Label: "Auto Cleanup .BROKEN", Kind: FieldBool},
	{Key: "confirm_actions", Label: "Confirm Actions", Kind: FieldBool},
	{Key: "show_timestamps", Label: "Show Timestamps", Kind: FieldBool},
}

// Fields returns the settings shown on the settings screen, in display order.
func Fields() []Field {
	return append([]Field(nil), fields...)
}

var ErrUnknownKey = errors.New("unknown config key")

func (c Config) Bool(key string) (bool, bool) {
	switch key {
	case "auto_cleanup":
		return c.AutoCleanup, true
	case "confirm_actions":
		return c.ConfirmActions, true
	case "show_timestamps":
		return c.ShowTimestamps, true
	}
	return false, false
}

// Get returns the display value of key; booleans render as Yes/No.
func (c Config) Get(key string) (string, error) {
	if b, ok := c.Bool(key); ok {
		if b {
			return "Yes", nil
		}
		return "No", nil
	}
	switch key {
	case "btr_pool_dir":
		return c.BtrPoolDir, nil
	case "snapshots_dir":
		return c.SnapshotsDir, nil
	case "theme":
		return c.Theme, nil
	case "backup_tool":
		return c.BackupTool, nil
	}
	return "", errors.Wrap(ErrUnknownKey, key)
}

func (c *Config) Set(key, value string) error {
	value = strings.TrimSpace(value)
	if _, ok := c.Bool(key); ok {
		b, err := parseBool(value)
		if err != nil {
			return errors.Wrapf(err, "%s", key)
		}
		switch key {
		case "auto_cleanup":
			c.AutoCleanup = b
		case "confirm_actions":
			c.ConfirmActions = b
		case "show_timestamps":
			c.ShowTimestamps = b
		}
		return nil
	}
	if value == "" {
		return errors.Newf("%s: value must not be empty", key)
	}
	switch key {
	case "btr_pool_dir":
		c.BtrPoolDir = value
	case "snapshots_dir":
		c.SnapshotsDir = value
	case "theme":
		c.Theme = value
	case "backup_tool":
		c.BackupTool = value
	default:
		return errors.Wrap(ErrUnknownKey, key)
	}
	return nil
}

// Toggle flips a boolean setting.
func (c *Config) Toggle(key string) error {
	b, ok := c.Bool(key)
	if !ok {
		return errors.Newf("%s is not a boolean setting", key)
	}
	return c.Set(key, strconv.FormatBool(!b))
}

func parseBool(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "on":
		return true, nil
	case "no", "n", "off":
		return false, nil
	}
	return strconv.ParseBool(v)
}
