package dashboard

import (
	"fmt"

	"github.com/spacesedan/wctweets/internal/models"
)

const (
	// VARIANT_BASIC is the first dashboard: KPIs, volume, languages,
	// hashtags and keywords.
	VARIANT_BASIC = "basic"
	// VARIANT_EXTENDED adds sources, locations, retweet filtering and the
	// most retweeted posts.
	VARIANT_EXTENDED = "extended"

	TOP_HASHTAGS  = 15
	TOP_WORDS     = 20
	TOP_SOURCES   = 8
	TOP_RETWEETED = 10
	TOP_LOCATIONS = 10
)

var BasicFields = []string{
	models.FIELD_USER_HANDLE,
	models.FIELD_TEXT,
	models.FIELD_LANG,
	models.FIELD_RETWEET_COUNT,
	models.FIELD_DATE_ONLY,
	models.FIELD_HASHTAGS,
}

var ExtendedFields = append(append([]string(nil), BasicFields...),
	models.FIELD_SOURCE,
	models.FIELD_USER_LOCATION,
	models.FIELD_IS_RETWEET_ID,
)

// FieldsFor returns the projection a variant reads. Empty means basic.
func FieldsFor(variant string) ([]string, error) {
	switch variant {
	case "", VARIANT_BASIC:
		return BasicFields, nil
	case VARIANT_EXTENDED:
		return ExtendedFields, nil
	default:
		return nil, fmt.Errorf("[Dashboard] unknown variant %q", variant)
	}
}
