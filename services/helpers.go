package services

import (
	"fmt"
	"strings"
	"time"

	"github.com/Dosada05/fitarena-system/models"
	"github.com/Dosada05/fitarena-system/storage"
)

// --- Общие хелперы ---

func derefString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

func validateCompetitionDates(start, end time.Time) error {
	if start.IsZero() || end.IsZero() {
		return ErrCompetitionDatesRequired
	}
	if !start.Before(end) {
		return fmt.Errorf("%w: start date (%s) must be before end date (%s)", ErrCompetitionInvalidDateRange, start.Format(time.RFC3339), end.Format(time.RFC3339))
	}
	return nil
}

func isValidStatusTransition(current, next models.CompetitionStatus) bool {
	if current == next {
		return true
	}
	allowedTransitions := map[models.CompetitionStatus][]models.CompetitionStatus{
		models.StatusDraft:     {models.StatusActive},
		models.StatusActive:    {models.StatusCompleted},
		models.StatusCompleted: {},
	}
	for _, allowedNextStatus := range allowedTransitions[current] {
		if next == allowedNextStatus {
			return true
		}
	}
	return false
}

// --- Хелперы для заполнения публичных URL ---

func populateCompetitionCoverURLFunc(competition *models.Competition, uploader storage.FileUploader) {
	if competition != nil && competition.CoverKey != nil && *competition.CoverKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*competition.CoverKey)
		if url != "" {
			competition.CoverURL = &url
		}
	}
}

func populateUserDetailsFunc(user *models.User, uploader storage.FileUploader) {
	if user == nil {
		return
	}
	user.PasswordHash = "" // Важно для безопасности
	if user.AvatarKey != nil && *user.AvatarKey != "" && uploader != nil {
		url := uploader.GetPublicURL(*user.AvatarKey)
		if url != "" {
			user.AvatarURL = &url
		}
	}
}

func populateLeaderboardAvatarsFunc(entries []models.LeaderboardEntry, uploader storage.FileUploader) {
	if uploader == nil {
		return
	}
	for i := range entries {
		if entries[i].AvatarKey != nil && *entries[i].AvatarKey != "" {
			url := uploader.GetPublicURL(*entries[i].AvatarKey)
			if url != "" {
				entries[i].AvatarURL = &url
			}
		}
	}
}

// GetExtensionFromContentType возвращает расширение файла по MIME-типу изображения.
func GetExtensionFromContentType(contentType string) (string, error) {
	switch contentType {
	case "image/jpeg", "image/jpg":
		return ".jpg", nil
	case "image/png":
		return ".png", nil
	case "image/gif":
		return ".gif", nil
	case "image/webp":
		return ".webp", nil
	default:
		parts := strings.Split(contentType, "/")
		if len(parts) == 2 && strings.HasPrefix(parts[0], "image") && parts[1] != "" {
			ext := "." + strings.Split(parts[1], "+")[0]
			return ext, nil
		}
		return "", fmt.Errorf("could not determine file extension from content type: '%s'", contentType)
	}
}
