package domain

import "slices"

const MaxAITurns = 20

type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

type Turn struct {
	Role    Role   `json:"role"`
	Content string `json:"content"`
}

// Conversation is the per-room AI turn history.
// Turns are recorded as user/assistant pairs so alternation always holds.
type Conversation struct {
	turns    []Turn
	maxTurns int
}

func NewConversation(maxTurns int) *Conversation {
	if maxTurns < 2 {
		maxTurns = MaxAITurns
	}
	return &Conversation{maxTurns: maxTurns}
}

// Record appends one exchange and evicts the oldest pairs beyond the cap.
func (c *Conversation) Record(prompt, reply string) {
	c.turns = append(c.turns,
		Turn{Role: RoleUser, Content: prompt},
		Turn{Role: RoleAssistant, Content: reply},
	)
	for len(c.turns) > c.maxTurns {
		c.turns = slices.Delete(c.turns, 0, 2)
	}
}

func (c *Conversation) Turns() []Turn {
	return slices.Clone(c.turns)
}

func (c *Conversation) Len() int { return len(c.turns) }
