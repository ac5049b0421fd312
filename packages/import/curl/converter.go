// Package curl converts curl command lines into captured flows.
package curl

import (
	"bufio"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"strings"

	"github.com/abdul-hamid-achik/locustgen/packages/flow"
)

// Converter converts curl commands to flows.
type Converter struct {
	defaultScheme string
}

// Option is a functional option for Converter.
type Option func(*Converter)

// WithDefaultScheme sets the scheme used for URLs given without one.
func WithDefaultScheme(scheme string) Option {
	return func(c *Converter) {
		if scheme != "" {
			c.defaultScheme = scheme
		}
	}
}

// NewConverter creates a new curl converter.
func NewConverter(opts ...Option) *Converter {
	c := &Converter{
		defaultScheme: "http",
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// ParsedCurl represents a parsed curl command.
type ParsedCurl struct {
	Method    string
	URL       string
	Headers   []flow.Field
	Data      []string
	BasicAuth string
	Cookie    string
	GetData   bool
	Insecure  bool
}

// Body joins every data argument the way curl does.
func (p *ParsedCurl) Body() string {
	return strings.Join(p.Data, "&")
}

// ConvertCommand converts a single curl command to a flow.
func (c *Converter) ConvertCommand(curlCmd string) (*flow.Flow, error) {
	parsed, err := c.Parse(curlCmd)
	if err != nil {
		return nil, err
	}
	return c.ToFlow(parsed)
}

// ConvertFile converts a file containing curl commands to flows.
func (c *Converter) ConvertFile(path string) ([]*flow.Flow, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	return c.ConvertReader(file)
}

// ConvertReader converts curl commands read from r, one per line with
// backslash line continuations. Blank lines and # comments are ignored.
func (c *Converter) ConvertReader(r io.Reader) ([]*flow.Flow, error) {
	var commands []string
	var currentCmd strings.Builder
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if strings.HasSuffix(line, "\\") {
			currentCmd.WriteString(strings.TrimSuffix(line, "\\"))
			currentCmd.WriteString(" ")
			continue
		}

		currentCmd.WriteString(line)
		commands = append(commands, currentCmd.String())
		currentCmd.Reset()
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	if currentCmd.Len() > 0 {
		commands = append(commands, currentCmd.String())
	}

	flows := make([]*flow.Flow, 0, len(commands))
	for i, cmd := range commands {
		f, err := c.ConvertCommand(cmd)
		if err != nil {
			return nil, fmt.Errorf("failed to convert command %d: %w", i+1, err)
		}
		flows = append(flows, f)
	}

	return flows, nil
}

// Parse parses a curl command string into a ParsedCurl struct.
func (c *Converter) Parse(curlCmd string) (*ParsedCurl, error) {
	parsed := &ParsedCurl{}

	curlCmd = strings.TrimSpace(curlCmd)

	if strings.HasPrefix(curlCmd, "curl ") {
		curlCmd = strings.TrimPrefix(curlCmd, "curl ")
	} else if curlCmd == "curl" {
		return nil, fmt.Errorf("no URL specified")
	}

	tokens := tokenize(curlCmd)

	value := func(i int) (string, error) {
		if i+1 < len(tokens) {
			return tokens[i+1], nil
		}
		return "", fmt.Errorf("missing value for %s", tokens[i])
	}

	i := 0
	for i < len(tokens) {
		token := tokens[i]

		switch token {
		case "-X", "--request":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Method = strings.ToUpper(v)
			i += 2

		case "-H", "--header":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			if name, val, ok := strings.Cut(v, ":"); ok {
				parsed.Headers = append(parsed.Headers, flow.Field{
					Name:  strings.TrimSpace(name),
					Value: strings.TrimSpace(val),
				})
			}
			i += 2

		case "-d", "--data", "--data-raw", "--data-binary", "--data-ascii":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, v)
			i += 2

		case "--data-urlencode":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, urlencodeData(v))
			i += 2

		case "--json":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Data = append(parsed.Data, v)
			parsed.Headers = append(parsed.Headers,
				flow.Field{Name: "Content-Type", Value: "application/json"},
				flow.Field{Name: "Accept", Value: "application/json"},
			)
			i += 2

		case "-u", "--user":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.BasicAuth = v
			i += 2

		case "-b", "--cookie":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Cookie = v
			i += 2

		case "-A", "--user-agent":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, flow.Field{Name: "User-Agent", Value: v})
			i += 2

		case "-e", "--referer":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.Headers = append(parsed.Headers, flow.Field{Name: "Referer", Value: v})
			i += 2

		case "--url":
			v, err := value(i)
			if err != nil {
				return nil, err
			}
			parsed.URL = v
			i += 2

		case "-G", "--get":
			parsed.GetData = true
			i++

		case "-I", "--head":
			parsed.Method = http.MethodHead
			i++

		case "-k", "--insecure":
			parsed.Insecure = true
			i++

		case "-L", "--location", "--compressed", "-s", "--silent", "-v", "--verbose", "-i", "--include":
			i++

		default:
			if strings.HasPrefix(token, "-") {
				// Unknown flag, skip its value if it has one
				if i+1 < len(tokens) && !strings.HasPrefix(tokens[i+1], "-") && !isURL(tokens[i+1]) {
					i += 2
				} else {
					i++
				}
				continue
			}
			if parsed.URL == "" {
				parsed.URL = token
			}
			i++
		}
	}

	if parsed.URL == "" {
		return nil, fmt.Errorf("no URL found in curl command")
	}

	if parsed.Method == "" {
		parsed.Method = http.MethodGet
		if len(parsed.Data) > 0 && !parsed.GetData {
			parsed.Method = http.MethodPost
		}
	}

	return parsed, nil
}

// ToFlow converts a ParsedCurl to a flow.
func (c *Converter) ToFlow(parsed *ParsedCurl) (*flow.Flow, error) {
	raw := parsed.URL
	if !strings.Contains(raw, "://") {
		raw = c.defaultScheme + "://" + raw
	}
	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid URL %q: %w", parsed.URL, err)
	}
	if u.Hostname() == "" {
		return nil, fmt.Errorf("invalid URL %q: missing host", parsed.URL)
	}

	var body []byte
	if len(parsed.Data) > 0 {
		if parsed.GetData {
			query := parsed.Body()
			if u.RawQuery != "" {
				query = u.RawQuery + "&" + query
			}
			u.RawQuery = query
		} else {
			body = []byte(parsed.Body())
		}
	}

	header := http.Header{}
	for _, h := range parsed.Headers {
		header.Add(h.Name, h.Value)
	}
	if parsed.BasicAuth != "" && header.Get("Authorization") == "" {
		header.Set("Authorization", "Basic "+base64.StdEncoding.EncodeToString([]byte(parsed.BasicAuth)))
	}
	if parsed.Cookie != "" && !strings.Contains(parsed.Cookie, "=") {
		// curl reads cookies from a file when the value has no '='
		parsed.Cookie = ""
	}
	if parsed.Cookie != "" {
		header.Set("Cookie", parsed.Cookie)
	}
	if len(body) > 0 && header.Get("Content-Type") == "" {
		header.Set("Content-Type", "application/x-www-form-urlencoded")
	}

	return flow.New(parsed.Method, u, header, body), nil
}

// urlencodeData encodes a --data-urlencode argument: "name=content" encodes
// only the content, anything else is encoded whole.
func urlencodeData(v string) string {
	if name, content, ok := strings.Cut(v, "="); ok {
		if name == "" {
			return url.QueryEscape(content)
		}
		return name + "=" + url.QueryEscape(content)
	}
	return url.QueryEscape(v)
}

// tokenize splits a curl command into tokens, respecting quotes.
func tokenize(cmd string) []string {
	var tokens []string
	var current strings.Builder
	inSingleQuote := false
	inDoubleQuote := false
	escaped := false

	for _, r := range cmd {
		if escaped {
			current.WriteRune(r)
			escaped = false
			continue
		}

		switch r {
		case '\\':
			if inSingleQuote {
				current.WriteRune(r)
			} else {
				escaped = true
			}
		case '\'':
			if !inDoubleQuote {
				inSingleQuote = !inSingleQuote
			} else {
				current.WriteRune(r)
			}
		case '"':
			if !inSingleQuote {
				inDoubleQuote = !inDoubleQuote
			} else {
				current.WriteRune(r)
			}
		case ' ', '\t':
			if inSingleQuote || inDoubleQuote {
				current.WriteRune(r)
			} else if current.Len() > 0 {
				tokens = append(tokens, current.String())
				current.Reset()
			}
		default:
			current.WriteRune(r)
		}
	}

	if current.Len() > 0 {
		tokens = append(tokens, current.String())
	}

	return tokens
}

// isURL checks if a string looks like a URL.
func isURL(s string) bool {
	return strings.HasPrefix(s, "http://") || strings.HasPrefix(s, "https://")
}
