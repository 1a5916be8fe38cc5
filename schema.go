package cobalt

import (
	"fmt"
	"strings"
	"time"
)

// Schema defines the keys (variable names) and their data types used in
// a rule expression. The same keys and types must be supplied in the
// data map when rules are evaluated.
type Schema struct {
	// Identifier for the schema. Useful for the hosting application;
	// not used by the engine internally.
	ID string `json:"id,omitempty"`
	// User-friendly name for the schema
	Name string `json:"name,omitempty"`
	// A user-friendly description of the schema
	Description string `json:"description,omitempty"`
	// User-defined value
	Meta interface{} `json:"-"`
	// List of data elements supported by this schema
	Elements []DataElement `json:"elements,omitempty"`
}

func (s *Schema) String() string {
	x := strings.Builder{}
	x.WriteString(s.ID)
	if s.Name != "" {
		x.WriteString("  '" + s.Name + "'")
	}
	x.WriteString("\n")
	for _, e := range s.Elements {
		x.WriteString(e.String())
		x.WriteString("\n")
	}
	return x.String()
}

// DataElement defines a named variable in a schema. Names may be
// dotted ("request.user"); qualified names win over shorter prefixes
// during expression checking.
type DataElement struct {
	// Short, user-friendly name of the variable. This is the name
	// that will be used in rules to refer to data passed in.
	//
	// RESERVED NAMES:
	//   selfKey (see const)
	Name string `json:"name"`

	// One of the Type implementations defined in this package.
	Type Type `json:"type"`

	// Optional description of the type.
	Description string `json:"description"`
}

func (e *DataElement) String() string {
	return fmt.Sprintf("  %s (%s)", e.Name, e.Type)
}

// Type defines a type in the engine's schema type system. These types
// are used to define schemas, to declare required evaluation results,
// and to interpret evaluation results. Not all implementations of
// Evaluator support all types.
type Type interface {
	// Implements the stringer interface
	String() string

	// Zero returns a 'template' value of the type to enable use of
	// reflection in evaluators and elsewhere to convert between engine
	// types and the types native to the evaluator.
	Zero() interface{}
}

// String defines a string type.
type String struct{}

// Int defines a signed 64-bit integer type.
type Int struct{}

// Uint defines an unsigned 64-bit integer type.
type Uint struct{}

// Float defines a 64-bit floating point type.
type Float struct{}

// Any defines an "undefined" or unspecified type, the expression
// language's dynamic top type.
type Any struct{}

// Bool defines a true/false type.
type Bool struct{}

// Duration defines a type for the time.Duration type.
type Duration struct{}

// Timestamp defines a type for the time.Time type.
type Timestamp struct{}

// Proto defines a type for a protobuf message.
type Proto struct {
	Protoname string      // fully qualified name of the protobuf type
	Message   interface{} // an empty protobuf instance of the type
}

// List defines a type representing a slice of values.
type List struct {
	ValueType Type // the type of element stored in the list
}

// Map defines a type representing a map of keys and values.
type Map struct {
	KeyType   Type // the type of the map key
	ValueType Type // the type of the value stored in the map
}

// Zero Methods
func (String) Zero() interface{}    { return string("") }
func (Int) Zero() interface{}       { return int64(0) }
func (Uint) Zero() interface{}      { return uint64(0) }
func (Bool) Zero() interface{}      { return bool(false) }
func (Float) Zero() interface{}     { return float64(0.0) }
func (Timestamp) Zero() interface{} { return time.Unix(0, 0) }
func (Duration) Zero() interface{}  { return time.Duration(0) }
func (t Proto) Zero() interface{}   { return t.Message }
func (Any) Zero() interface{}       { return nil }
func (t List) Zero() interface{}    { return []interface{}{} }
func (t Map) Zero() interface{}     { return map[string]interface{}{} }

// String Methods
func (Int) String() string       { return "int" }
func (Uint) String() string      { return "uint" }
func (Bool) String() string      { return "bool" }
func (String) String() string    { return "string" }
func (Any) String() string       { return "any" }
func (Duration) String() string  { return "duration" }
func (Timestamp) String() string { return "timestamp" }
func (Float) String() string     { return "float" }
func (t Proto) String() string   { return "proto(" + t.Protoname + ")" }
func (t List) String() string    { return fmt.Sprintf("[]%v", t.ValueType) }
func (t Map) String() string     { return fmt.Sprintf("map[%s]%s", t.KeyType, t.ValueType) }

// Value is the result of evaluation returned in the Result.
// Inspect the Type to determine what it is.
type Value struct {
	Val  interface{} // the value stored
	Type Type        // the engine type stored
}

// ParseType parses a string that represents a schema type and returns
// the type. The primitive types are their lower-case names (string,
// int, duration, etc.). Maps and lists look like Go maps and slices:
// map[string]float and []string. Proto types look like:
// proto(protoname).
func ParseType(t string) (Type, error) {

	if strings.Contains(t, "map") {
		return parseMap(t)
	}

	if strings.Contains(t, "[]") {
		return parseList(t)
	}

	if strings.Contains(t, "proto(") {
		return parseProto(t)
	}

	switch t {
	case "string":
		return String{}, nil
	case "int":
		return Int{}, nil
	case "uint":
		return Uint{}, nil
	case "float":
		return Float{}, nil
	case "bool":
		return Bool{}, nil
	case "duration":
		return Duration{}, nil
	case "timestamp":
		return Timestamp{}, nil
	case "any":
		return Any{}, nil
	default:
		return Any{}, fmt.Errorf("unrecognized type: %s", t)
	}
}

// parseMap parses a string and returns a map type.
// The string must be in the format map[<keytype>]<valuetype>.
// Example: map[string]int
func parseMap(t string) (Type, error) {

	var keyTypeName string
	var valueTypeName string

	t = strings.ReplaceAll(t, "[", " ")
	t = strings.ReplaceAll(t, "]", " ")

	n, err := fmt.Sscanf(t, "map %s %s", &keyTypeName, &valueTypeName)
	if err != nil {
		return Any{}, err
	}

	if n < 2 {
		return Any{}, fmt.Errorf("wanted 2 items parsed, got %d", n)
	}

	keyType, err := ParseType(keyTypeName)
	if err != nil {
		return Any{}, err
	}

	valueType, err := ParseType(valueTypeName)
	if err != nil {
		return Any{}, err
	}

	return Map{
		KeyType:   keyType,
		ValueType: valueType,
	}, nil
}

// parseList parses a string and returns a list type.
// The string must be in the format []<valuetype>
// Example: []string
func parseList(t string) (Type, error) {
	var valueTypeName string
	_, err := fmt.Sscanf(t, "[]%s", &valueTypeName)
	if err != nil {
		return Any{}, err
	}
	valueType, err := ParseType(valueTypeName)
	if err != nil {
		return Any{}, err
	}

	return List{
		ValueType: valueType,
	}, nil
}

// parseProto parses a string and returns a partial proto type.
// The "Message" field of the proto struct must be supplied later.
// The string must be in the form proto(<protoname>).
// Example: proto(school.Student)
func parseProto(t string) (Type, error) {
	startParen := strings.Index(t, "(")
	endParen := strings.Index(t, ")")

	if startParen == -1 || endParen == -1 || startParen > endParen || endParen > len(t) || endParen-startParen == 1 {
		return nil, fmt.Errorf("bad proto specification")
	}

	name := t[startParen+1 : endParen]
	return Proto{Protoname: name}, nil
}
