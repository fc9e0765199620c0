package bot

import "github.com/bwmarrin/discordgo"

// Responder sends responses to a Discord interaction. Handlers receive one
// instead of talking to the session directly, so they can be exercised
// without a live connection.
type Responder interface {
	// Respond sends a response to the interaction.
	Respond(response *discordgo.InteractionResponse) error
}

// DiscordResponder is the live Responder backed by a Discord session.
type DiscordResponder struct {
	session     *discordgo.Session
	interaction *discordgo.Interaction
}

// NewDiscordResponder creates a Responder for the given interaction.
func NewDiscordResponder(s *discordgo.Session, i *discordgo.Interaction) *DiscordResponder {
	return &DiscordResponder{
		session:     s,
		interaction: i,
	}
}

// Respond sends the response through the Discord API.
func (r *DiscordResponder) Respond(response *discordgo.InteractionResponse) error {
	return r.session.InteractionRespond(r.interaction, response)
}

// MockResponder is a test double that records every response it receives.
type MockResponder struct {
	Responses []*discordgo.InteractionResponse
	Err       error
}

// Respond records the response and returns the configured error.
func (m *MockResponder) Respond(response *discordgo.InteractionResponse) error {
	m.Responses = append(m.Responses, response)
	return m.Err
}

// LastResponse returns the most recent recorded response, or nil.
func (m *MockResponder) LastResponse() *discordgo.InteractionResponse {
	if len(m.Responses) == 0 {
		return nil
	}
	return m.Responses[len(m.Responses)-1]
}
