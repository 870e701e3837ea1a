package scenario

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"
)

//go:embed suites/login.yaml
var loginSuiteYAML []byte

type suiteFile struct {
	Scenarios Suite `yaml:"scenarios"`
}

// Load reads a YAML suite from r. Unknown fields are rejected and the suite is validated before it is returned.
func Load(r io.Reader) (Suite, error) {
	decoder := yaml.NewDecoder(r)
	decoder.KnownFields(true)

	var sf suiteFile
	err := decoder.Decode(&sf)
	if err != nil {
		if errors.Is(err, io.EOF) {
			return nil, fmt.Errorf("%w: empty suite", ErrInvalidScenario)
		}
		return nil, fmt.Errorf("decode suite: %w", err)
	}

	if len(sf.Scenarios) == 0 {
		return nil, fmt.Errorf("%w: empty suite", ErrInvalidScenario)
	}

	err = sf.Scenarios.Validate()
	if err != nil {
		return nil, err
	}

	return sf.Scenarios, nil
}

// LoadFile reads a YAML suite from the file at path.
func LoadFile(path string) (Suite, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	suite, err := Load(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}

	return suite, nil
}

// LoginSuite returns the built-in suite for the demo fixture: the login journey and the cases where a missing
// credential must keep the welcome message hidden.
func LoginSuite() Suite {
	suite, err := Load(bytes.NewReader(loginSuiteYAML))
	if err != nil {
		panic(fmt.Sprintf("embedded login suite: %v", err))
	}
	return suite
}
