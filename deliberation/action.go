package deliberation

// ActionKind labels what the final answer should be and how long it may be.
type ActionKind struct {
	// Label is spliced into prompts ("what is your <label>?").
	Label string
	// Discussion allows a multi-sentence reply; every other kind is held to a
	// single sentence.
	Discussion bool
}

var (
	// ActionInvestigate picks the player the seer checks tonight.
	ActionInvestigate = ActionKind{Label: "choice of player to investigate"}
	// ActionProtect picks the player the protector shields tonight.
	ActionProtect = ActionKind{Label: "choice of player to protect"}
	// ActionVote names the single player to eliminate.
	ActionVote = ActionKind{Label: "vote, given as the name of one player"}
	// ActionDiscussion is a free-form contribution to the public discussion.
	ActionDiscussion = ActionKind{Label: "discussion point, including the reasoning behind any suspicion", Discussion: true}
	// ActionTarget proposes an elimination target to fellow eliminators.
	ActionTarget = ActionKind{Label: "suggestion for the elimination target"}
	// ActionReply answers a message that fits no other strategy.
	ActionReply = ActionKind{Label: "reply", Discussion: true}
)

// Format returns the length constraint for the action.
func (a ActionKind) Format() string {
	if a.Discussion {
		return "You may give a full response that adds to the discussion so far."
	}
	return "Answer with a single sentence."
}
