package tui

func mainHelp(rebootNeeded bool) string {
	keys := "↑/↓ navigate | ←/→ switch | enter restore | S settings | R refresh | I snapshot | P purge | C clean | L log | ? help"
	if rebootNeeded {
		keys += " | H REBOOT"
	}
	return keys + " | Q quit"
}

func settingsHelp() string {
	return "enter edit | space toggle | S save | esc back"
}

func snapshotHelp(running bool) string {
	if running {
		return "esc cancel"
	}
	return "any key to continue"
}

func historyHelp() string {
	return "↑/↓ scroll | / filter | esc back"
}

const helpMarkdown = `# btrbk-restore

Browse btrbk snapshots and restore one over the live subvolume.

## Main screen

| Key | Action |
|-----|--------|
| ↑/↓ or k/j | Move within a column |
| ←/→ or h/l | Switch column |
| Enter | Restore the selected snapshot |
| S | Settings |
| R | Rescan the snapshots directory |
| I | Create new snapshots with btrbk |
| P | Purge all but the newest snapshot per subvolume |
| C | Delete leftover .BROKEN subvolumes |
| L | Operation history |
| H | Reboot after a restore |
| Q | Quit |

## Restore

The live subvolume is renamed to ` + "`<prefix>.BROKEN.<timestamp>`" + `, the
snapshot is copied into its place and checked. If any step fails the
original is put back. A reboot is needed for the restored subvolume to be
used.

## Settings

Enter edits a path or toggles a switch. Changes are saved immediately.
`
