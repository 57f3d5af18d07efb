package config

import (
	"bufio"
	"errors"
	"flag"
	"fmt"
	"io"
	"os"
	"reflect"
	"strconv"
	"strings"
	"time"
)

func CheckVersion(version string) {
	for _, arg := range os.Args[1:] {
		if arg == "--version" || arg == "-version" {
			fmt.Println(version)
			os.Exit(0)
		}
	}
}

type LoadOptions struct {
	ConfigFlag     string
	DefaultConfig  string
	StrictINI      bool
	SkipAutoConfig bool
}

var durationType = reflect.TypeOf(time.Duration(0))

type fieldInfo struct {
	field        reflect.Value
	name         string
	aliases      []string
	help         string
	isRequired   bool
	defaultValue string
	section      string
}

func Load(cfg interface{}, args []string) error {
	_, err := LoadArgs(cfg, args, nil)
	return err
}

// LoadArgs applies defaults, then the INI file, then command line flags, and
// returns the positional arguments left after flag parsing.
func LoadArgs(cfg interface{}, args []string, opts *LoadOptions) ([]string, error) {
	if opts == nil {
		opts = &LoadOptions{ConfigFlag: "config", DefaultConfig: "./config.ini"}
	}
	if opts.ConfigFlag == "" {
		opts.ConfigFlag = "config"
	}

	fields, err := prepare(cfg)
	if err != nil {
		return nil, err
	}

	fs := flag.NewFlagSet("config", flag.ContinueOnError)
	fs.SetOutput(io.Discard)
	var configPath string
	fs.StringVar(&configPath, opts.ConfigFlag, "", "Path to config file")

	flagValues := make(map[string]*string)
	for _, f := range fields {
		if f.section != "" {
			continue
		}
		ptr := new(string)
		fs.StringVar(ptr, f.name, "", f.help)
		flagValues[f.name] = ptr
	}

	if err := fs.Parse(args); err != nil {
		if errors.Is(err, flag.ErrHelp) {
			fs.SetOutput(os.Stderr)
			fs.PrintDefaults()
			os.Exit(0)
		}
		return nil, err
	}

	if configPath == "" && !opts.SkipAutoConfig && opts.DefaultConfig != "" {
		if _, err := os.Stat(opts.DefaultConfig); err == nil {
			configPath = opts.DefaultConfig
		}
	}
	if configPath != "" {
		if err := loadINI(configPath, fields, opts.StrictINI); err != nil {
			return nil, fmt.Errorf("failed to load config file: %w", err)
		}
	}

	var flagErr error
	fs.Visit(func(fl *flag.Flag) {
		ptr, ok := flagValues[fl.Name]
		if !ok || flagErr != nil {
			return
		}
		for i := range fields {
			if fields[i].name == fl.Name {
				if err := setFieldValue(fields[i].field, *ptr); err != nil {
					flagErr = fmt.Errorf("flag -%s: %w", fl.Name, err)
				}
				return
			}
		}
	})
	if flagErr != nil {
		return nil, flagErr
	}

	if err := validateRequired(fields); err != nil {
		return nil, err
	}
	return fs.Args(), nil
}

// LoadFile reads only the INI file at path. It is used where the process
// command line belongs to someone else, e.g. a shared library inside a host.
func LoadFile(cfg interface{}, path string) error {
	fields, err := prepare(cfg)
	if err != nil {
		return err
	}
	if path != "" {
		if err := loadINI(path, fields, false); err != nil {
			return fmt.Errorf("failed to load config file: %w", err)
		}
	}
	return validateRequired(fields)
}

func prepare(cfg interface{}) ([]fieldInfo, error) {
	v := reflect.ValueOf(cfg)
	if v.Kind() != reflect.Ptr || v.Elem().Kind() != reflect.Struct {
		return nil, fmt.Errorf("cfg must be a pointer to a struct")
	}
	fields := parseStructTags(v.Elem())
	for _, f := range fields {
		if f.defaultValue == "" {
			continue
		}
		if err := setFieldValue(f.field, f.defaultValue); err != nil {
			return nil, fmt.Errorf("invalid default for %s: %w", f.name, err)
		}
	}
	return fields, nil
}

func parseStructTags(v reflect.Value) []fieldInfo {
	t := v.Type()
	var fields []fieldInfo
	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		fv := v.Field(i)
		if !fv.CanSet() {
			continue
		}

		name := sf.Tag.Get("name")
		if name == "" {
			name = toKebabCase(sf.Name)
		}
		var aliases []string
		if aliasTag := sf.Tag.Get("alias"); aliasTag != "" {
			for _, a := range strings.Split(aliasTag, ",") {
				aliases = append(aliases, strings.TrimSpace(a))
			}
		}

		fields = append(fields, fieldInfo{
			field:        fv,
			name:         name,
			aliases:      aliases,
			help:         sf.Tag.Get("help"),
			isRequired:   sf.Tag.Get("required") == "true",
			defaultValue: sf.Tag.Get("default"),
			section:      strings.ToLower(sf.Tag.Get("section")),
		})

		if section := sf.Tag.Get("section"); section != "" && fv.Kind() == reflect.Struct {
			for _, sub := range parseStructTags(fv) {
				if sub.defaultValue != "" {
					setFieldValue(sub.field, sub.defaultValue)
				}
			}
		}
	}
	return fields
}

func loadINI(path string, fields []fieldInfo, strict bool) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	topLevel := make(map[string]*fieldInfo)
	sections := make(map[string][]fieldInfo)
	for i := range fields {
		f := &fields[i]
		if f.section != "" {
			sections[f.section] = parseStructTags(f.field)
			continue
		}
		topLevel[f.name] = f
		for _, alias := range f.aliases {
			topLevel[alias] = f
		}
	}

	scanner := bufio.NewScanner(file)
	lineNum := 0
	var current []fieldInfo
	inSection := false

	for scanner.Scan() {
		lineNum++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") || strings.HasPrefix(line, ";") {
			continue
		}

		if strings.HasPrefix(line, "[") && strings.HasSuffix(line, "]") {
			name := strings.ToLower(strings.TrimSpace(strings.Trim(line, "[]")))
			current, inSection = sections[name]
			if !inSection && strict {
				return fmt.Errorf("unknown section at line %d: %s", lineNum, name)
			}
			inSection = true
			continue
		}

		key, value, ok := strings.Cut(line, "=")
		if !ok {
			return fmt.Errorf("invalid format at line %d: %s", lineNum, line)
		}
		key = strings.TrimSpace(key)
		value = strings.Trim(strings.TrimSpace(value), `"'`)

		var target *fieldInfo
		if inSection {
			for i := range current {
				if current[i].name == key || current[i].name == toKebabCase(key) {
					target = &current[i]
					break
				}
				for _, alias := range current[i].aliases {
					if alias == key {
						target = &current[i]
					}
				}
			}
		} else {
			target = topLevel[key]
		}

		if target == nil {
			if strict {
				return fmt.Errorf("unknown configuration key at line %d: %s", lineNum, key)
			}
			continue
		}
		if err := setFieldValue(target.field, value); err != nil {
			return fmt.Errorf("error parsing '%s' at line %d: %w", key, lineNum, err)
		}
	}
	return scanner.Err()
}

func setFieldValue(fv reflect.Value, value string) error {
	ft := fv.Type()
	switch ft.Kind() {
	case reflect.String:
		fv.SetString(value)
	case reflect.Int, reflect.Int32:
		v, err := strconv.ParseInt(value, 10, ft.Bits())
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case reflect.Int64:
		if ft == durationType {
			d, err := time.ParseDuration(value)
			if err != nil {
				return err
			}
			fv.SetInt(int64(d))
			return nil
		}
		v, err := strconv.ParseInt(value, 10, 64)
		if err != nil {
			return err
		}
		fv.SetInt(v)
	case reflect.Uint, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := strconv.ParseUint(value, 10, ft.Bits())
		if err != nil {
			return err
		}
		fv.SetUint(v)
	case reflect.Float64:
		v, err := strconv.ParseFloat(value, 64)
		if err != nil {
			return err
		}
		fv.SetFloat(v)
	case reflect.Bool:
		fv.SetBool(ParseBool(value))
	case reflect.Slice:
		if ft.Elem().Kind() != reflect.String {
			return fmt.Errorf("unsupported slice type: %v", ft)
		}
		var slice []string
		for _, item := range strings.Split(value, ",") {
			if trimmed := strings.TrimSpace(item); trimmed != "" {
				slice = append(slice, trimmed)
			}
		}
		fv.Set(reflect.ValueOf(slice))
	default:
		return fmt.Errorf("unsupported type: %v", ft.Kind())
	}
	return nil
}

func ParseBool(value string) bool {
	value = strings.ToLower(value)
	return value == "true" || value == "yes" || value == "1" || value == "on"
}

func toKebabCase(s string) string {
	var result strings.Builder
	for i, r := range s {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				result.WriteByte('-')
			}
			r += 'a' - 'A'
		}
		result.WriteRune(r)
	}
	return result.String()
}

func validateRequired(fields []fieldInfo) error {
	var missing []string
	for _, f := range fields {
		if f.section != "" {
			for _, sub := range parseStructTags(f.field) {
				if sub.isRequired && sub.field.IsZero() {
					missing = append(missing, f.section+"."+sub.name)
				}
			}
			continue
		}
		if f.isRequired && f.field.IsZero() {
			missing = append(missing, f.name)
		}
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing required config: %s", strings.Join(missing, ", "))
	}
	return nil
}
