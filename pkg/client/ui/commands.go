package ui

import "strings"

// slashCommand describes one "/name" command typed into the input line.
type slashCommand struct {
	name    string
	aliases []string
	usage   string
	desc    string
}

// slashCommands is the dispatch table for the input line. "/1".."/9" room
// switching is handled separately because the digit is the argument.
var slashCommands = []slashCommand{
	{name: "help", usage: "/help", desc: "show the help overlay"},
	{name: "create", usage: "/create", desc: "create a new room"},
	{name: "join", usage: "/join <room>", desc: "join a room by name"},
	{name: "leave", usage: "/leave", desc: "leave the active room"},
	{name: "users", usage: "/users", desc: "list who is in the active room"},
	{name: "rooms", usage: "/rooms", desc: "list rooms on the server"},
	{name: "clear", usage: "/clear", desc: "clear the active room's scrollback"},
	{name: "quit", aliases: []string{"exit"}, usage: "/quit", desc: "disconnect and exit"},
}

// lookupCommand resolves a typed command name or alias to its entry.
func lookupCommand(name string) *slashCommand {
	for i := range slashCommands {
		if slashCommands[i].name == name {
			return &slashCommands[i]
		}
		for _, alias := range slashCommands[i].aliases {
			if alias == name {
				return &slashCommands[i]
			}
		}
	}
	return nil
}

// matchingCommands returns the commands whose name starts with prefix.
func matchingCommands(prefix string) []slashCommand {
	var out []slashCommand
	for _, cmd := range slashCommands {
		if strings.HasPrefix(cmd.name, prefix) {
			out = append(out, cmd)
		}
	}
	return out
}

// parseCommand splits a "/name args" input line. ok is false when the
// line is not a command at all.
func parseCommand(input string) (name, args string, ok bool) {
	if !strings.HasPrefix(input, "/") {
		return "", "", false
	}
	rest := strings.TrimPrefix(input, "/")
	if rest == "" {
		return "", "", false
	}
	if idx := strings.IndexAny(rest, " \t"); idx >= 0 {
		return rest[:idx], strings.TrimSpace(rest[idx+1:]), true
	}
	return rest, "", true
}

// isRoomDigit reports whether a command name is a bare room index 1-9.
func isRoomDigit(name string) bool {
	return len(name) == 1 && name[0] >= '1' && name[0] <= '9'
}

// commandHint builds the footer hint shown while the buffer holds a
// partially typed command.
func commandHint(buffer string) string {
	name, _, ok := parseCommand(buffer)
	if !ok {
		// Bare "/" lists everything.
		var names []string
		for _, cmd := range slashCommands {
			names = append(names, "/"+cmd.name)
		}
		return MutedTextStyle.Render(strings.Join(names, "  ") + "  /1../9")
	}
	if strings.ContainsAny(buffer, " \t") {
		// Past the command name; show its usage.
		if cmd := lookupCommand(name); cmd != nil {
			return MutedTextStyle.Render(cmd.usage + " - " + cmd.desc)
		}
		return ""
	}
	matches := matchingCommands(name)
	if len(matches) == 0 {
		if isRoomDigit(name) || lookupCommand(name) != nil {
			return ""
		}
		return MutedTextStyle.Render("no matching command")
	}
	var parts []string
	for _, cmd := range matches {
		parts = append(parts, cmd.usage)
	}
	return MutedTextStyle.Render(strings.Join(parts, "  "))
}

// completeCommand returns the completed buffer when exactly one command
// matches the typed prefix. Commands taking arguments complete with a
// trailing space.
func completeCommand(buffer string) (string, bool) {
	name, _, ok := parseCommand(buffer)
	if !ok || strings.ContainsAny(buffer, " \t") {
		return buffer, false
	}
	matches := matchingCommands(name)
	if len(matches) != 1 {
		return buffer, false
	}
	completed := "/" + matches[0].name
	if strings.Contains(matches[0].usage, "<") {
		completed += " "
	}
	return completed, completed != buffer
}
