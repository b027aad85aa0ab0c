package entity

// Kind selects the validation and wire rules of a Field.
type Kind int

// Field kinds. The zero value is KindString.
const (
	KindString Kind = iota
	KindEmail
	KindKey
	KindAttachment
	KindBoolean
	KindInteger
	KindNumeric
	KindDate
	KindDateTime
	KindEnum
	KindEnumMulti
)

// Metadata type names, as delivered in FieldMetadata.TypeName.
const (
	TypeNameString     = "string"
	TypeNameEmail      = "email"
	TypeNameKey        = "key"
	TypeNameAttachment = "attachment"
	TypeNameBoolean    = "boolean"
	TypeNameInteger    = "integer"
	TypeNameNumeric    = "numeric"
	TypeNameDate       = "date"
	TypeNameDateTime   = "dateTime"
	TypeNameEnum       = "enum"
	TypeNameEnumMulti  = "enumMulti"
)

var kindsByTypeName = map[string]Kind{
	TypeNameString:     KindString,
	TypeNameEmail:      KindEmail,
	TypeNameKey:        KindKey,
	TypeNameAttachment: KindAttachment,
	TypeNameBoolean:    KindBoolean,
	TypeNameInteger:    KindInteger,
	TypeNameNumeric:    KindNumeric,
	TypeNameDate:       KindDate,
	TypeNameDateTime:   KindDateTime,
	TypeNameEnum:       KindEnum,
	TypeNameEnumMulti:  KindEnumMulti,
}

var kindNames = [...]string{
	KindString:     TypeNameString,
	KindEmail:      TypeNameEmail,
	KindKey:        TypeNameKey,
	KindAttachment: TypeNameAttachment,
	KindBoolean:    TypeNameBoolean,
	KindInteger:    TypeNameInteger,
	KindNumeric:    TypeNameNumeric,
	KindDate:       TypeNameDate,
	KindDateTime:   TypeNameDateTime,
	KindEnum:       TypeNameEnum,
	KindEnumMulti:  TypeNameEnumMulti,
}

// KindFor maps a metadata type name to its Kind. Matching is exact.
// Unrecognized names map to KindString.
func KindFor(typeName string) Kind {
	if k, ok := kindsByTypeName[typeName]; ok {
		return k
	}
	return KindString
}

// String returns the canonical type name of the kind.
func (k Kind) String() string {
	if k >= 0 && int(k) < len(kindNames) {
		return kindNames[k]
	}
	return TypeNameString
}

// IsDate reports whether values of this kind are time.Time and travel as
// strings on the wire.
func (k Kind) IsDate() bool {
	return k == KindDate || k == KindDateTime
}

// IsEnum reports whether the kind carries an option list.
func (k Kind) IsEnum() bool {
	return k == KindEnum || k == KindEnumMulti
}
