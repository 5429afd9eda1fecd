package util

import (
	"bytes"
	"io"
	"path/filepath"
	"strings"

	"github.com/hetianyi/gox/file"
	json "github.com/json-iterator/go"
	"gopkg.in/yaml.v3"
)

func isYaml(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	return ext == ".yml" || ext == ".yaml"
}

// LoadConfig loads config from a json or yaml file, chosen by extension.
func LoadConfig(c string, container interface{}) error {
	cf, err := file.GetFile(c)
	if err != nil {
		return err
	}
	defer cf.Close()
	var buffer bytes.Buffer
	if _, err = io.Copy(&buffer, cf); err != nil {
		return err
	}
	if isYaml(c) {
		return yaml.Unmarshal(buffer.Bytes(), container)
	}
	return json.Unmarshal(buffer.Bytes(), container)
}
