package domain

import "errors"

var (
	ErrUnauthenticated   = errors.New("you must be logged in")
	ErrSessionExpired    = errors.New("session expired")
	ErrTopicNotFound     = errors.New("voting topic not found")
	ErrInvalidTopicID    = errors.New("invalid topic id")
	ErrInvalidOption     = errors.New("invalid option for this topic")
	ErrVotingClosed      = errors.New("voting period has ended")
	ErrAlreadyVoted      = errors.New("you have already voted on this topic")
	ErrBusNotSelected    = errors.New("please select a bus for your request")
	ErrBusNotFound       = errors.New("selected bus not found")
	ErrInvalidWindow     = errors.New("voting end date must be after its start date")
	ErrInvalidTransition = errors.New("topic is no longer active")
	ErrInternal          = errors.New("internal server error")
)
