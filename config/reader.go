package config

import (
	"encoding/json"
	"io"
	"strings"

	"github.com/a8m/envsubst"
	"github.com/go-viper/mapstructure/v2"
	"github.com/pkg/errors"
)

// AttributeMap is a config in its undecoded form, as read from JSON. Command line overrides are
// merged into it before decoding.
type AttributeMap map[string]interface{}

// Read reads a config from the given file, expanding environment variable references such as
// ${SPI_DEV} first.
func Read(filePath string) (*Config, error) {
	attrs, err := ReadAttributes(filePath)
	if err != nil {
		return nil, err
	}
	conf, err := FromAttributes(attrs)
	if err != nil {
		return nil, errors.Wrapf(err, "reading %q", filePath)
	}
	conf.ConfigFilePath = filePath
	return conf, nil
}

// FromReader reads a config from the given reader and specifies where, if applicable, the file
// the reader originated from.
func FromReader(originalPath string, r io.Reader) (*Config, error) {
	buf, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	buf, err = envsubst.Bytes(buf)
	if err != nil {
		return nil, err
	}
	attrs, err := decodeAttributes(buf)
	if err != nil {
		return nil, err
	}
	conf, err := FromAttributes(attrs)
	if err != nil {
		return nil, err
	}
	conf.ConfigFilePath = originalPath
	return conf, nil
}

// ReadAttributes reads the file into an AttributeMap without decoding or validating it.
func ReadAttributes(filePath string) (AttributeMap, error) {
	buf, err := envsubst.ReadFile(filePath)
	if err != nil {
		return nil, err
	}
	return decodeAttributes(buf)
}

func decodeAttributes(buf []byte) (AttributeMap, error) {
	attrs := AttributeMap{}
	if err := json.Unmarshal(buf, &attrs); err != nil {
		return nil, errors.Wrap(err, "failed to decode config from json")
	}
	return attrs, nil
}

// FromAttributes decodes and validates attrs. Numbers may be given as JSON numbers or as
// strings in any Go integer syntax ("0x2301"); unknown keys are rejected.
func FromAttributes(attrs AttributeMap) (*Config, error) {
	var conf Config
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		Result:           &conf,
		WeaklyTypedInput: true,
		ErrorUnused:      true,
	})
	if err != nil {
		return nil, err
	}
	if err := decoder.Decode(map[string]interface{}(attrs)); err != nil {
		return nil, errors.Wrap(err, "failed to decode config")
	}
	if err := conf.Validate("config"); err != nil {
		return nil, err
	}
	return &conf, nil
}

// Set stores value under a dotted key such as "spi.path", creating nested maps as needed.
func (attrs AttributeMap) Set(key string, value interface{}) {
	m := map[string]interface{}(attrs)
	parts := strings.Split(key, ".")
	for _, part := range parts[:len(parts)-1] {
		next, ok := m[part].(map[string]interface{})
		if !ok {
			next = map[string]interface{}{}
			m[part] = next
		}
		m = next
	}
	m[parts[len(parts)-1]] = value
}
