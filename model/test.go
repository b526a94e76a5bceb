package model

import (
	"encoding/json"

	"github.com/pkg/errors"
	"gopkg.in/launchdarkly/go-sdk-common.v2/ldvalue"
)

// ErrEmptyName is returned by Validate for a test case without a name.
var ErrEmptyName = errors.New("test case has an empty Name")

// TestCase identifies one test that a plugin discovered or ran.
//
// Two TestCase values refer to the same test if and only if their names are equal; the
// attributes are descriptive only. Use Key or SameTest rather than comparing structs.
type TestCase struct {
	Name       string                    `json:"Name"`
	Attributes map[string]AttributeValue `json:"Attributes"`
}

// Key returns the identity of a test case. Every lookup or deduplication of test cases,
// on either side of the pipe, goes through this function.
func Key(tc TestCase) string {
	return tc.Name
}

// SameTest reports whether a and b refer to the same logical test.
func SameTest(a, b TestCase) bool {
	return Key(a) == Key(b)
}

// NewTestCase returns a TestCase with a non-nil attribute map.
func NewTestCase(name string, attributes map[string]AttributeValue) TestCase {
	if attributes == nil {
		attributes = map[string]AttributeValue{}
	}
	return TestCase{Name: name, Attributes: attributes}
}

func (tc TestCase) String() string {
	return tc.Name
}

// Validate checks the fields that are required on the wire.
func (tc TestCase) Validate() error {
	if tc.Name == "" {
		return ErrEmptyName
	}
	return nil
}

func (tc TestCase) MarshalJSON() ([]byte, error) {
	type plain TestCase
	p := plain(tc)
	if p.Attributes == nil {
		p.Attributes = map[string]AttributeValue{}
	}
	return json.Marshal(p)
}

// AttributeValue is the value of one test case attribute: either a single string or a
// list of strings. The zero value is the empty string.
type AttributeValue struct {
	list   []string
	str    string
	isList bool
}

// StringAttribute returns an attribute holding a single string.
func StringAttribute(s string) AttributeValue {
	return AttributeValue{str: s}
}

// ListAttribute returns an attribute holding a list of strings. An empty call produces
// an empty list, which is distinct from the empty string.
func ListAttribute(values ...string) AttributeValue {
	return AttributeValue{list: append([]string{}, values...), isList: true}
}

// IsList is true if the value holds a list rather than a single string.
func (a AttributeValue) IsList() bool {
	return a.isList
}

// String returns the single string value, or "" for a list.
func (a AttributeValue) String() string {
	if a.isList {
		return ""
	}
	return a.str
}

// Strings returns the list value, or a one-element list for a single string.
func (a AttributeValue) Strings() []string {
	if a.isList {
		return append([]string(nil), a.list...)
	}
	return []string{a.str}
}

// Equal reports whether a and b hold the same variant and the same strings.
func (a AttributeValue) Equal(b AttributeValue) bool {
	if a.isList != b.isList {
		return false
	}
	if !a.isList {
		return a.str == b.str
	}
	if len(a.list) != len(b.list) {
		return false
	}
	for i := range a.list {
		if a.list[i] != b.list[i] {
			return false
		}
	}
	return true
}

func (a AttributeValue) asLDValue() ldvalue.Value {
	if !a.isList {
		return ldvalue.String(a.str)
	}
	items := make([]ldvalue.Value, 0, len(a.list))
	for _, s := range a.list {
		items = append(items, ldvalue.String(s))
	}
	return ldvalue.ArrayOf(items...)
}

func (a AttributeValue) MarshalJSON() ([]byte, error) {
	return json.Marshal(a.asLDValue())
}

func (a *AttributeValue) UnmarshalJSON(data []byte) error {
	var v ldvalue.Value
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	switch v.Type() {
	case ldvalue.StringType:
		*a = StringAttribute(v.StringValue())
		return nil
	case ldvalue.ArrayType:
		list := make([]string, 0, v.Count())
		for i := 0; i < v.Count(); i++ {
			item := v.GetByIndex(i)
			if item.Type() != ldvalue.StringType {
				return errors.Errorf("attribute list element %d is %s, not a string", i, item.Type())
			}
			list = append(list, item.StringValue())
		}
		*a = AttributeValue{list: list, isList: true}
		return nil
	default:
		return errors.Errorf("attribute value must be a string or a list of strings, got %s", v.Type())
	}
}
