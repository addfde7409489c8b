package mq

import (
	"fmt"
	"time"

	"github.com/google/uuid"
)

// VoteEvent is published after a vote has committed. Consumers use it to
// fan out the recomputed result to live subscribers; the database row is
// already durable by the time the event exists.
type VoteEvent struct {
	DaoID      string `json:"dao_id"`
	ProposalID string `json:"proposal_id"`
	VoteID     string `json:"vote_id"`
	OptionID   string `json:"option_id"`
	Entity     string `json:"entity"`
	Power      int64  `json:"power"`
	Timestamp  int64  `json:"timestamp"`
	MessageID  string `json:"message_id"` // for consumer-side idempotency
}

// NewVoteEvent stamps a vote event with a message id and timestamp.
func NewVoteEvent(daoID, proposalID, voteID, optionID, entity string, power int64) VoteEvent {
	return VoteEvent{
		DaoID:      daoID,
		ProposalID: proposalID,
		VoteID:     voteID,
		OptionID:   optionID,
		Entity:     entity,
		Power:      power,
		Timestamp:  time.Now().Unix(),
		MessageID:  fmt.Sprintf("%s:%s:%s", proposalID, voteID, uuid.New().String()),
	}
}

// EventHandler processes one vote event.
type EventHandler func(event VoteEvent) error
