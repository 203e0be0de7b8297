package parser

import (
	"errors"
	"fmt"
	"io"

	"github.com/aluiziolira/go-scrape-channels/models"
	jsoniter "github.com/json-iterator/go"
)

// DefaultRecordKey is the envelope field holding the record array.
const DefaultRecordKey = "data"

var (
	// ErrMalformed is returned when the payload is not valid JSON.
	ErrMalformed = errors.New("parser: malformed JSON")
	// ErrNotObject is returned when the payload is not a JSON object.
	ErrNotObject = errors.New("parser: envelope is not a JSON object")
	// ErrNotArray is returned when the record field holds something other than an array.
	ErrNotArray = errors.New("parser: record field is not an array")
	// ErrRecordNotObject is returned when an array element is not a JSON object.
	ErrRecordNotObject = errors.New("parser: record is not a JSON object")
)

var api = jsoniter.ConfigCompatibleWithStandardLibrary

// DecodePage extracts the records stored under key in a JSON envelope. A
// missing or null key yields zero records and no error. Field order inside
// each record is preserved.
func DecodePage(body []byte, key string) ([]models.ChannelRecord, error) {
	iter := jsoniter.ParseBytes(api, body)
	if iter.WhatIsNext() != jsoniter.ObjectValue {
		return nil, ErrNotObject
	}

	var (
		records []models.ChannelRecord
		decErr  error
	)
	iter.ReadObjectCB(func(it *jsoniter.Iterator, field string) bool {
		if field != key {
			it.Skip()
			return it.Error == nil
		}
		records, decErr = readRecords(it)
		if decErr == nil && it.Error != nil {
			decErr = fmt.Errorf("%w: %v", ErrMalformed, it.Error)
		}
		return decErr == nil
	})
	if decErr != nil {
		return nil, decErr
	}
	if iter.Error != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformed, iter.Error)
	}
	// only whitespace may follow the envelope
	if iter.WhatIsNext() != jsoniter.InvalidValue || iter.Error != io.EOF {
		return nil, fmt.Errorf("%w: trailing data after envelope", ErrMalformed)
	}
	return records, nil
}

func readRecords(iter *jsoniter.Iterator) ([]models.ChannelRecord, error) {
	switch iter.WhatIsNext() {
	case jsoniter.NilValue:
		iter.Skip()
		return nil, nil
	case jsoniter.ArrayValue:
	default:
		iter.Skip()
		return nil, ErrNotArray
	}

	records := make([]models.ChannelRecord, 0)
	var recErr error
	iter.ReadArrayCB(func(it *jsoniter.Iterator) bool {
		if it.WhatIsNext() != jsoniter.ObjectValue {
			recErr = fmt.Errorf("%w at index %d", ErrRecordNotObject, len(records))
			return false
		}
		rec := models.ChannelRecord{}
		it.ReadObjectCB(func(it *jsoniter.Iterator, name string) bool {
			rec.Fields = append(rec.Fields, models.Field{Name: name, Value: readValue(it)})
			return it.Error == nil
		})
		records = append(records, rec)
		return it.Error == nil
	})
	if recErr != nil {
		return nil, recErr
	}
	return records, nil
}

func readValue(iter *jsoniter.Iterator) models.Value {
	switch iter.WhatIsNext() {
	case jsoniter.StringValue:
		return models.StringValue(iter.ReadString())
	case jsoniter.NumberValue:
		return models.NumberValue(string(iter.ReadNumber()))
	case jsoniter.BoolValue:
		return models.BoolValue(iter.ReadBool())
	case jsoniter.NilValue:
		iter.ReadNil()
		return models.NullValue()
	default:
		raw := iter.SkipAndReturnBytes()
		return models.RawValue(append([]byte(nil), raw...))
	}
}
