package service

import "errors"

// Lifecycle errors. Every one of them aborts the enclosing call before
// any state is committed.
var (
	// ErrInvalidWindow means the voting window violates
	// current_epoch < voting_start_epoch <= voting_end_epoch.
	ErrInvalidWindow = errors.New("invalid voting window")

	// ErrOptionsFrozen means an option append was attempted at or after
	// the voting start epoch.
	ErrOptionsFrozen = errors.New("options are frozen once voting has started")

	// ErrDuplicateOption means an option id, label or rank collides with an
	// existing option of the proposal.
	ErrDuplicateOption = errors.New("option id, label or rank already used")

	// ErrVotingNotOpen means a vote was attempted outside the
	// [start, end] epoch window.
	ErrVotingNotOpen = errors.New("voting is not open")

	// ErrUnknownOption means a vote targets an option the proposal does
	// not have.
	ErrUnknownOption = errors.New("unknown option")

	// ErrDuplicateVoteID means the caller-supplied vote identifier was
	// already recorded on this proposal.
	ErrDuplicateVoteID = errors.New("vote id already recorded")

	// ErrNoTokensProvided means the ownership proof resolved to zero
	// instances.
	ErrNoTokensProvided = errors.New("proof resolved to no token instances")

	// ErrAllTokensAlreadyVoted means every presented instance already
	// contributed its power to this proposal.
	ErrAllTokensAlreadyVoted = errors.New("all token instances have already voted")
)
