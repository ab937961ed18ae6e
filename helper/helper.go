package helper

import (
	"errors"
	"os"
	"path/filepath"
	"strings"

	"github.com/bassbeaver/gioc"
	"github.com/spf13/viper"
)

const configServicesPrefix = "services"

func StringInSlice(a string, list []string) bool {
	for _, b := range list {
		if b == a {
			return true
		}
	}

	return false
}

// GetStringPart returns the part-th element of source split by separator, or "" when there is no
// such element.
func GetStringPart(source, separator string, part int) string {
	parts := strings.Split(source, separator)
	if part < 0 || part >= len(parts) {
		return ""
	}

	return strings.TrimSpace(parts[part])
}

// BuildConfigFromDir reads configPath, or every config file of configPath's directory when it
// points to a file, and merges them into one viper object. Files with extensions viper does not
// support are skipped.
func BuildConfigFromDir(configPath string) (*viper.Viper, error) {
	configObj := viper.New()

	var configDir string
	configPathStat, configPathStatError := os.Stat(configPath)
	if nil != configPathStatError {
		return nil, errors.New("failed to read configs: " + configPathStatError.Error())
	}
	if configPathStat.IsDir() {
		configDir = configPath
	} else {
		configDir = filepath.Dir(configPath)
	}

	firstConfigFile := true
	pathWalkError := filepath.Walk(
		configDir,
		func(path string, info os.FileInfo, err error) error {
			if err != nil {
				return errors.New("failed to read config file " + path + ", error: " + err.Error())
			}

			if info.IsDir() {
				return nil
			}

			configFileExt := filepath.Ext(info.Name())
			// if extension is not allowed - take next file
			if "" == configFileExt || !StringInSlice(configFileExt[1:], viper.SupportedExts) {
				return nil
			}

			configFile, openError := os.Open(path)
			if nil != openError {
				return openError
			}
			defer configFile.Close()

			configObj.SetConfigType(configFileExt[1:])
			if firstConfigFile {
				if configError := configObj.ReadConfig(configFile); nil != configError {
					return errors.New("failed to parse config file " + path + ", error: " + configError.Error())
				}

				firstConfigFile = false
			} else {
				if configError := configObj.MergeConfig(configFile); nil != configError {
					return errors.New("failed to parse config file " + path + ", error: " + configError.Error())
				}
			}

			return nil
		},
	)
	if nil != pathWalkError {
		return nil, errors.New("failed to read configs: " + pathWalkError.Error())
	}

	return configObj, nil
}

// RegisterService registers factoryMethod in container under alias with the arguments configured
// at services.<alias>.arguments.
func RegisterService(
	configObj *viper.Viper,
	container *gioc.Container,
	alias string,
	factoryMethod interface{},
	enableCaching bool,
) error {
	configServicePath := configServicesPrefix + "." + alias
	configServiceArgumentsPath := configServicePath + ".arguments"
	if !configObj.IsSet(configServicePath) {
		return errors.New(alias + " service configuration not found")
	}

	var arguments []string
	if configObj.IsSet(configServiceArgumentsPath) {
		arguments = configObj.GetStringSlice(configServiceArgumentsPath)
	} else {
		arguments = make([]string, 0)
	}

	container.RegisterServiceFactoryByAlias(
		alias,
		gioc.Factory{
			Create:    factoryMethod,
			Arguments: arguments,
		},
		enableCaching,
	)

	return nil
}
