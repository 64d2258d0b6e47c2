package models

// AccountContext is the optional brand overlay for an account. Its absence
// (no context defined for the account) is a valid state distinct from an
// empty context, and callers cache that absence explicitly.
type AccountContext struct {
	AccountID       string   `bson:"accountId" json:"account_id"`
	BrandVoice      string   `bson:"brandVoice,omitempty" json:"brand_voice,omitempty"`
	Bio             string   `bson:"bio,omitempty" json:"bio,omitempty"`
	Expertise       []string `bson:"expertise,omitempty" json:"expertise,omitempty"`
	AlwaysDo        []string `bson:"alwaysDo,omitempty" json:"always_do,omitempty"`
	NeverDo         []string `bson:"neverDo,omitempty" json:"never_do,omitempty"`
	Hashtags        []string `bson:"hashtags,omitempty" json:"hashtags,omitempty"`
	DefaultTone     string   `bson:"defaultTone,omitempty" json:"default_tone,omitempty"`
	DefaultLanguage string   `bson:"defaultLanguage,omitempty" json:"default_language,omitempty"`
}
