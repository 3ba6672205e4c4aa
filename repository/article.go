package repository

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"go.uber.org/zap"
)

// Article is one fetched news story. ID is usually the source URL.
type Article struct {
	ID        string     `json:"id"`
	Title     string     `json:"title"`
	Text      string     `json:"text"`
	URL       string     `json:"url"`
	Published *time.Time `json:"published"`
}

// UnmarshalJSON accepts any date layout feeds commonly emit for "published"
// (RFC1123, RFC3339, ...). Empty, null or unparseable means unknown.
func (a *Article) UnmarshalJSON(data []byte) error {
	type alias Article
	aux := struct {
		*alias
		Published *string `json:"published"`
	}{alias: (*alias)(a)}

	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}

	a.Published = nil
	if aux.Published == nil || strings.TrimSpace(*aux.Published) == "" {
		return nil
	}

	t, err := ParsePublished(*aux.Published)
	if err != nil {
		zap.L().Warn("ignoring unparsed publish date",
			zap.String("id", a.ID),
			zap.String("value", *aux.Published),
			zap.Error(err))
		return nil
	}
	a.Published = &t
	return nil
}

func ParsePublished(s string) (time.Time, error) {
	t, err := dateparse.ParseAny(strings.TrimSpace(s))
	if err != nil {
		return time.Time{}, err
	}
	return t.UTC(), nil
}
