package offchain

import (
	"github.com/code-payments/nft-minter/pkg/solana/tokenmetadata"
)

// Attribute is a single trait in the metadata document.
type Attribute struct {
	TraitType string `json:"trait_type"`
	Value     string `json:"value"`
}

// Document is the off-chain JSON metadata referenced by a token's uri.
//
// Reference: https://developers.metaplex.com/token-metadata/token-standard
type Document struct {
	Name        string      `json:"name"`
	Symbol      string      `json:"symbol"`
	Description string      `json:"description"`
	Image       string      `json:"image"`
	ExternalURL string      `json:"external_url,omitempty"`
	Attributes  []Attribute `json:"attributes,omitempty"`
}

// NewDocument builds the metadata document for a published image. Attributes
// preserve the order of the additional fields.
func NewDocument(req *PublishRequest, imageURI string) *Document {
	doc := &Document{
		Name:        req.Name,
		Symbol:      req.Symbol,
		Description: req.Description,
		Image:       imageURI,
		ExternalURL: req.ExternalURL,
	}
	for _, field := range req.AdditionalFields {
		doc.Attributes = append(doc.Attributes, Attribute{
			TraitType: field.Key,
			Value:     field.Value,
		})
	}
	return doc
}

// AdditionalFields returns the attributes as token metadata fields.
func (d *Document) AdditionalFields() []tokenmetadata.Field {
	var fields []tokenmetadata.Field
	for _, attribute := range d.Attributes {
		fields = append(fields, tokenmetadata.Field{
			Key:   attribute.TraitType,
			Value: attribute.Value,
		})
	}
	return fields
}
