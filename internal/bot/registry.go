package bot

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/bwmarrin/discordgo"
)

// Command is one slash command the bot answers
type Command interface {
	// Definition is what gets registered with Discord
	Definition() *discordgo.ApplicationCommand

	// Respond builds the reply. It may block on upstream lookups, so the bot
	// defers the interaction before calling it.
	Respond(ctx context.Context) (*discordgo.InteractionResponseData, error)
}

// Registry manages all registered commands
type Registry struct {
	mu       sync.RWMutex
	commands map[string]Command
}

// NewRegistry creates a new command registry
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]Command),
	}
}

// Register adds a command to the registry
func (r *Registry) Register(cmd Command) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.commands[cmd.Definition().Name] = cmd
}

// Get retrieves a command by name
func (r *Registry) Get(name string) (Command, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[name]
	if !ok {
		return nil, fmt.Errorf("unknown command: %s", name)
	}
	return cmd, nil
}

// Definitions returns the definitions of all commands, sorted by name
func (r *Registry) Definitions() []*discordgo.ApplicationCommand {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]*discordgo.ApplicationCommand, 0, len(r.commands))
	for _, cmd := range r.commands {
		defs = append(defs, cmd.Definition())
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}
