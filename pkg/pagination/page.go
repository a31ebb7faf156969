package pagination

import (
	"errors"
	"fmt"
	"io"

	"github.com/Sternrassler/logistics-converter/pkg/table"
	jsoniter "github.com/json-iterator/go"
)

// ErrMalformedPage is returned when a page body is not a valid page.
var ErrMalformedPage = errors.New("malformed page")

// Key field names of a page body.
const (
	NextField    = "next"
	ResultsField = "results"
)

// numbers stay json.Number so passthrough fields keep their exact text.
var pageJSON = jsoniter.Config{
	EscapeHTML: false,
	UseNumber:  true,
}.Froze()

// Page is one decoded response of the paginated source.
type Page struct {
	Results []*table.Record
	// Next is the URL of the following page, valid only when HasNext is true.
	Next    string
	HasNext bool
}

// DecodePage parses a page body. The body must be a single JSON object with a
// "results" array of objects; "next" may be a string, null or absent.
// Record fields keep the key order of the body.
func DecodePage(data []byte) (*Page, error) {
	iter := pageJSON.BorrowIterator(data)
	defer pageJSON.ReturnIterator(iter)

	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, fmt.Errorf("%w: body is not a JSON object", ErrMalformedPage)
	}

	page := &Page{}
	hasResults := false

	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		switch field {
		case ResultsField:
			if it.WhatIsNext() != jsoniter.ArrayValue {
				it.ReportError("decode page", "results must be an array")
				return false
			}
			hasResults = true
			page.Results = page.Results[:0]
			it.ReadArrayCB(func(it *jsoniter.Iterator) bool {
				rec := readRecord(it)
				if rec == nil {
					return false
				}
				page.Results = append(page.Results, rec)
				return true
			})
		case NextField:
			switch it.WhatIsNext() {
			case jsoniter.NilValue:
				it.ReadNil()
				page.Next, page.HasNext = "", false
			case jsoniter.StringValue:
				page.Next, page.HasNext = it.ReadString(), true
			default:
				it.ReportError("decode page", "next must be a string or null")
				return false
			}
		default:
			it.Skip()
		}
		return it.Error == nil
	})

	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedPage, iter.Error)
	}
	// the iterator reports io.EOF once only whitespace is left.
	if iter.WhatIsNext(); iter.Error != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after page object", ErrMalformedPage)
	}
	if !hasResults {
		return nil, fmt.Errorf("%w: missing %q field", ErrMalformedPage, ResultsField)
	}

	return page, nil
}

// readRecord reads one result object, or reports an error and returns nil.
func readRecord(it *jsoniter.Iterator) *table.Record {
	if it.WhatIsNext() != jsoniter.ObjectValue {
		it.ReportError("decode record", "result entry must be an object")
		return nil
	}

	rec := table.NewRecord()
	it.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		rec.Set(field, it.Read())
		return it.Error == nil
	})
	if it.Error != nil {
		return nil
	}
	return rec
}
