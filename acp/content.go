package acp

import (
	"encoding/json"
	"fmt"
)

// ContentBlock is a polymorphic item appearing inside prompts and
// session updates, discriminated on the wire by "type" (spec §3).
// Exactly one of the typed fields is populated; Type always matches
// the populated field and is what gets validated before the rest of
// the payload is decoded (spec §9 "Polymorphic payloads").
type ContentBlock struct {
	Type         string              `json:"type" validate:"required,oneof=text image audio resource resource_link"`
	Text         *TextContent        `json:"-"`
	Image        *ImageContent       `json:"-"`
	Audio        *AudioContent       `json:"-"`
	Resource     *ResourceContent    `json:"-"`
	ResourceLink *ResourceLinkContent `json:"-"`
}

// TextContent carries plain text.
type TextContent struct {
	Text string `json:"text" validate:"required"`
}

// ImageContent carries a base64-encoded image.
type ImageContent struct {
	Data     string `json:"data" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
	URI      string `json:"uri,omitempty"`
}

// AudioContent carries base64-encoded audio.
type AudioContent struct {
	Data     string `json:"data" validate:"required"`
	MimeType string `json:"mimeType" validate:"required"`
}

// ResourceContent embeds a full resource (e.g. a file's contents).
type ResourceContent struct {
	URI      string  `json:"uri" validate:"required"`
	MimeType string  `json:"mimeType,omitempty"`
	Text     *string `json:"text,omitempty"`
	Blob     *string `json:"blob,omitempty"`
}

// ResourceLinkContent references a resource without embedding it.
type ResourceLinkContent struct {
	URI      string `json:"uri" validate:"required"`
	Name     string `json:"name,omitempty"`
	MimeType string `json:"mimeType,omitempty"`
}

// TextBlock builds a ContentBlock of type "text", mirroring the
// acp.TextBlock(...) convenience constructor agents reach for when
// assembling a PromptRequest.
func TextBlock(text string) ContentBlock {
	return ContentBlock{Type: "text", Text: &TextContent{Text: text}}
}

// ImageBlock builds a ContentBlock of type "image".
func ImageBlock(data, mimeType string) ContentBlock {
	return ContentBlock{Type: "image", Image: &ImageContent{Data: data, MimeType: mimeType}}
}

// MarshalJSON flattens the populated variant's fields alongside the
// discriminator, the way the wire actually represents a tagged union:
// {"type":"text","text":"..."} not {"type":"text","text":{"text":"..."}}.
func (c ContentBlock) MarshalJSON() ([]byte, error) {
	switch c.Type {
	case "text":
		if c.Text == nil {
			return nil, fmt.Errorf("acp: content block type=text has no Text payload")
		}
		return json.Marshal(struct {
			Type string `json:"type"`
			Text string `json:"text"`
		}{"text", c.Text.Text})
	case "image":
		if c.Image == nil {
			return nil, fmt.Errorf("acp: content block type=image has no Image payload")
		}
		return json.Marshal(struct {
			Type     string `json:"type"`
			Data     string `json:"data"`
			MimeType string `json:"mimeType"`
			URI      string `json:"uri,omitempty"`
		}{"image", c.Image.Data, c.Image.MimeType, c.Image.URI})
	case "audio":
		if c.Audio == nil {
			return nil, fmt.Errorf("acp: content block type=audio has no Audio payload")
		}
		return json.Marshal(struct {
			Type     string `json:"type"`
			Data     string `json:"data"`
			MimeType string `json:"mimeType"`
		}{"audio", c.Audio.Data, c.Audio.MimeType})
	case "resource":
		if c.Resource == nil {
			return nil, fmt.Errorf("acp: content block type=resource has no Resource payload")
		}
		return json.Marshal(struct {
			Type     string  `json:"type"`
			URI      string  `json:"uri"`
			MimeType string  `json:"mimeType,omitempty"`
			Text     *string `json:"text,omitempty"`
			Blob     *string `json:"blob,omitempty"`
		}{"resource", c.Resource.URI, c.Resource.MimeType, c.Resource.Text, c.Resource.Blob})
	case "resource_link":
		if c.ResourceLink == nil {
			return nil, fmt.Errorf("acp: content block type=resource_link has no ResourceLink payload")
		}
		return json.Marshal(struct {
			Type     string `json:"type"`
			URI      string `json:"uri"`
			Name     string `json:"name,omitempty"`
			MimeType string `json:"mimeType,omitempty"`
		}{"resource_link", c.ResourceLink.URI, c.ResourceLink.Name, c.ResourceLink.MimeType})
	default:
		return nil, fmt.Errorf("acp: unknown content block type %q", c.Type)
	}
}

// UnmarshalJSON selects the variant by the "type" discriminator before
// decoding the remainder, per spec §9 "Validation selects the variant
// by discriminator before decoding the remainder". An unknown
// discriminator fails validation rather than passing through, per
// spec §9 "Schema evolution".
func (c *ContentBlock) UnmarshalJSON(data []byte) error {
	var disc struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &disc); err != nil {
		return err
	}
	c.Type = disc.Type
	switch disc.Type {
	case "text":
		var v TextContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Text = &v
	case "image":
		var v ImageContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Image = &v
	case "audio":
		var v AudioContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Audio = &v
	case "resource":
		var v ResourceContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.Resource = &v
	case "resource_link":
		var v ResourceLinkContent
		if err := json.Unmarshal(data, &v); err != nil {
			return err
		}
		c.ResourceLink = &v
	default:
		return fmt.Errorf("acp: unknown content block discriminator %q", disc.Type)
	}
	return nil
}
