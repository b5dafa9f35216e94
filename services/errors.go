package services

import "errors"

// Общие ошибки, используемые в разных сервисах и маппинге HTTP.
var (
	// Ресурс не найден (универсальная)
	ErrNotFound = errors.New("requested resource not found")

	// Ошибки валидации и бизнес-правил
	ErrValidationFailed        = errors.New("validation failed")
	ErrPasswordTooShort        = errors.New("password is too short")
	ErrInvalidCredentials      = errors.New("invalid email or password")
	ErrCompetitionNameRequired = errors.New("competition name is required")
	ErrCompetitionNotDraft     = errors.New("competition is not a draft")
	ErrCompetitionNotActive    = errors.New("competition is not active")
	ErrTeamCountOutOfRange     = errors.New("team competition requires 2 to 4 teams")
	ErrPoolAmountOutOfRange    = errors.New("prize pool amount is out of allowed range")
	ErrPoolRequired            = errors.New("competition has no prize pool")
	ErrPoolNotBuyIn            = errors.New("competition pool is not a buy-in pool")
	ErrChargeNotVerified       = errors.New("charge could not be verified with payment provider")
	ErrChargeAlreadyUsed       = errors.New("charge reference already used")
	ErrFairPlayNotAccepted     = errors.New("fair play policy has not been accepted")
	ErrScoreOutsideWindow      = errors.New("score day is outside the competition window")

	// Ошибки конфликтов
	ErrUserEmailConflict    = errors.New("email address is already in use")
	ErrUserNicknameConflict = errors.New("nickname is already in use")
	ErrAlreadyJoined        = errors.New("user already joined this competition")
	ErrAlreadySettled       = errors.New("competition payouts already settled")

	// Ошибки аутентификации и авторизации
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrForbiddenOperation   = errors.New("operation not allowed for the current user")
	ErrCreatorOnly          = errors.New("only the competition creator can perform this action")

	// Ошибки, специфичные для сущностей
	ErrUserNotFound        = errors.New("user not found")
	ErrCompetitionNotFound = errors.New("competition not found")
	ErrInvitationNotFound  = errors.New("invitation not found")
	ErrParticipantNotFound = errors.New("participant not found")
	ErrPayoutsNotFound     = errors.New("payouts not found")

	// Ошибки приглашений
	ErrInvitationResolved   = errors.New("invitation already resolved")
	ErrInvitationNotPending = errors.New("invitation is not pending")

	// Ошибки соревнований
	ErrCompetitionInvalidDateRange = errors.New("competition end date must be after start date")
	ErrCompetitionDatesRequired    = errors.New("competition start and end dates are required")
	ErrCompetitionInvalidScoring   = errors.New("invalid scoring type provided")
	ErrCompetitionInvalidStatus    = errors.New("invalid competition status transition")
)
