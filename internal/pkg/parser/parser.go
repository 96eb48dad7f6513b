// Package parser decodes query-string filters into typed structs.
package parser

import (
	"fmt"
	"net/url"
	"reflect"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/gorilla/schema"
)

var decoder = newDecoder()

func newDecoder() *schema.Decoder {
	d := schema.NewDecoder()
	d.IgnoreUnknownKeys(true)
	d.SetAliasTag("query")
	d.RegisterConverter(uuid.UUID{}, func(value string) reflect.Value {
		id, err := uuid.FromString(value)
		if err != nil {
			return reflect.Value{}
		}
		return reflect.ValueOf(id)
	})
	return d
}

// Values converts the request query string into url.Values, keeping repeated keys.
func Values(c *fiber.Ctx) url.Values {
	values := url.Values{}
	c.Context().QueryArgs().VisitAll(func(key, value []byte) {
		values.Add(string(key), string(value))
	})
	return values
}

// ParseQuery decodes the request query string into dst, a pointer to a struct
// whose fields carry `query:"name"` tags.
func ParseQuery(c *fiber.Ctx, dst interface{}) error {
	return Decode(Values(c), dst)
}

// Decode fills dst from values.
func Decode(values url.Values, dst interface{}) error {
	if err := decoder.Decode(dst, values); err != nil {
		return fmt.Errorf("invalid query parameters: %w", err)
	}
	return nil
}
