package format

// Unknown carries the tag of a message this decoder does not interpret
// (origin, type, truncate, logical messages, ...).
type Unknown struct {
	Tag byte `json:"tag"`
}

func NewUnknown(data []byte) (*Unknown, error) {
	msg := &Unknown{Tag: tagOf(data)}
	return msg, &DecodeError{Kind: UnknownMessageType, Tag: msg.Tag}
}

func (u *Unknown) Variant() Variant { return VariantUnknown }

func (*Unknown) change() {}

func (u *Unknown) MarshalJSON() ([]byte, error) {
	return wrap(VariantUnknown, struct {
		Tag string `json:"tag"`
	}{Tag: string(rune(u.Tag))})
}
