package pgx

import (
	"regexp"
	"strings"
	"unicode/utf8"

	"github.com/trellishq/trellis/backend/pkg/ontology"
	"github.com/trellishq/trellis/backend/pkg/store"
)

const maxSlugLength = 100

var slugPattern = regexp.MustCompile(`^[a-z0-9][a-z0-9_-]*$`)

func validateSlug(slug string) error {
	if slug == "" {
		return store.NewValidationError("slug", "must not be empty")
	}
	if len(slug) > maxSlugLength {
		return store.NewValidationError("slug", "must be at most %d characters", maxSlugLength)
	}
	if !slugPattern.MatchString(slug) {
		return store.NewValidationError("slug", "must contain only lowercase letters, digits, hyphens, and underscores")
	}
	return nil
}

func validateName(field string, name string) error {
	if strings.TrimSpace(name) == "" {
		return store.NewValidationError(field, "must not be empty")
	}
	if utf8.RuneCountInString(name) > ontology.MaxNameLength {
		return store.NewValidationError(field, "must be at most %d characters", ontology.MaxNameLength)
	}
	return nil
}

func validateProps(field string, props ontology.Properties) error {
	if err := props.Validate(); err != nil {
		return store.NewValidationError(field, "%s", err)
	}
	return nil
}

func validateStrength(strength *float64) error {
	if strength == nil {
		return nil
	}
	if *strength < 0 || *strength > 1 {
		return store.NewValidationError("strength", "must be within [0,1], got %v", *strength)
	}
	return nil
}

// validateEventInput checks the taxonomy and metadata rules shared by
// the public append path and has no database dependency.
func validateEventInput(eventType ontology.EventType, metadata ontology.Properties) error {
	if !eventType.Valid() {
		return store.NewValidationError("type", "unknown event type %q", eventType)
	}
	if err := validateProps("metadata", metadata); err != nil {
		return err
	}
	// Consolidated *_event families discriminate on metadata.protocol.
	if strings.HasSuffix(string(eventType), "_event") {
		if raw, ok := metadata["protocol"]; ok {
			protocol, isString := raw.(string)
			if !isString || !ontology.Protocol(protocol).Valid() {
				return store.NewValidationError("metadata.protocol", "unknown protocol %v", raw)
			}
		}
	}
	return nil
}
