package api

import (
	"mime/multipart" // Uploaded files
	"strconv"        // Number parsing
	"strings"        // String manipulation

	"storefront/internal/utils" // Input sanitizing

	"github.com/gin-gonic/gin"      // Gin web framework
	"github.com/shopspring/decimal" // Money
)

// formFields collects the submitted values of a multipart or urlencoded form into a
// column map. Only keys present in the request are set, so the same parser serves
// create and partial update. The first invalid value is kept in invalid.
type formFields struct {
	c       *gin.Context
	values  map[string]any
	invalid string
}

func newFormFields(c *gin.Context) *formFields {
	return &formFields{c: c, values: map[string]any{}}
}

func (f *formFields) get(key string) (string, bool) {
	return f.c.GetPostForm(key)
}

func (f *formFields) fail(key string) {
	if f.invalid == "" {
		f.invalid = key
	}
}

// text stores a trimmed single-line value with markup stripped
func (f *formFields) text(key string) {
	if v, ok := f.get(key); ok {
		f.values[key] = utils.SanitizeInput(v)
	}
}

// longText stores a trimmed value as submitted, for rich descriptions
func (f *formFields) longText(key string) {
	if v, ok := f.get(key); ok {
		f.values[key] = strings.TrimSpace(v)
	}
}

// optionalText stores nil for a blank value
func (f *formFields) optionalText(key string) {
	if v, ok := f.get(key); ok {
		if v = utils.SanitizeInput(v); v == "" {
			f.values[key] = nil
		} else {
			f.values[key] = v
		}
	}
}

func (f *formFields) money(key string) {
	if v, ok := f.get(key); ok {
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || d.IsNegative() {
			f.fail(key)
			return
		}
		f.values[key] = d
	}
}

// optionalMoney stores a NULL decimal for a blank value
func (f *formFields) optionalMoney(key string) {
	if v, ok := f.get(key); ok {
		if strings.TrimSpace(v) == "" {
			f.values[key] = decimal.NullDecimal{}
			return
		}
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil || d.IsNegative() {
			f.fail(key)
			return
		}
		f.values[key] = decimal.NewNullDecimal(d)
	}
}

func (f *formFields) integer(key string) {
	if v, ok := f.get(key); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n < 0 {
			f.fail(key)
			return
		}
		f.values[key] = n
	}
}

// optionalID stores nil for a blank or zero reference
func (f *formFields) optionalID(key string) {
	if v, ok := f.get(key); ok {
		v = strings.TrimSpace(v)
		if v == "" || v == "0" {
			f.values[key] = nil
			return
		}
		n, err := strconv.ParseUint(v, 10, 32)
		if err != nil {
			f.fail(key)
			return
		}
		id := uint(n)
		f.values[key] = &id
	}
}

func (f *formFields) boolean(key string) {
	if v, ok := f.get(key); ok {
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "1", "on", "yes":
			f.values[key] = true
		case "false", "0", "off", "no", "":
			f.values[key] = false
		default:
			f.fail(key)
		}
	}
}

func (f *formFields) has(key string) bool {
	_, ok := f.values[key]
	return ok
}

func (f *formFields) str(key string) string {
	s, _ := f.values[key].(string)
	return s
}

// formFiles returns the uploads sent under any of keys, in order
func formFiles(c *gin.Context, keys ...string) []*multipart.FileHeader {
	form, err := c.MultipartForm()
	if err != nil || form == nil {
		return nil
	}
	var files []*multipart.FileHeader
	for _, k := range keys {
		files = append(files, form.File[k]...)
	}
	return files
}
