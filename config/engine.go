package config

import (
	"encoding/base64"

	"github.com/google/uuid"

	"stylo/cache"
	"stylo/css"
	"stylo/persist"
	"stylo/styles"
	"stylo/surface"
)

// NonceRandom as configured nonce requests a fresh random nonce for every
// instance.
const NonceRandom = "random"

// NonceValue returns nonce style nodes are tagged with.
func (e *EngineConfig) NonceValue() string {
	if e.Nonce != NonceRandom {
		return e.Nonce
	}
	id := uuid.New()
	return base64.StdEncoding.EncodeToString(id[:])
}

// HashFunc returns content hash function selected by configuration.
func (e *EngineConfig) HashFunc() cache.HashFunc {
	if e.Hash == HashAlgoSHA256 {
		return persist.ShortHash
	}
	return cache.DefaultHash
}

// Options converts engine configuration into style instance options. With
// doc == nil the instance works in server mode.
func (e *EngineConfig) Options(doc *surface.Document) styles.Options {
	opts := styles.Options{
		Key:      e.Key,
		Nonce:    e.NonceValue(),
		Hash:     e.HashFunc(),
		Document: doc,
		Speedy:   e.SheetMode.Speedy(),
		Dev:      e.Development,
	}
	if e.Prefix {
		opts.Prefix = css.PrefixAll
	}
	return opts
}

// PersistOptions converts output configuration into file naming options.
func (o *OutputConfig) PersistOptions(key string) persist.Options {
	return persist.Options{
		Name:     o.FileName,
		Template: o.FileNameTemplate,
		Key:      key,
	}
}
