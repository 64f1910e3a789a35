package neighbor

import (
	"fmt"
	"io"
	"net/netip"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/projectdiscovery/arpx/pkg/arp"
	errorutil "github.com/projectdiscovery/utils/errors"
	"github.com/tidwall/gjson"
)

// staticFile is the TOML layout:
//
//	[[neighbor]]
//	ip = "10.0.0.5"
//	mac = "aa:bb:cc:dd:ee:ff"
type staticFile struct {
	Neighbor []struct {
		IP  string `toml:"ip"`
		MAC string `toml:"mac"`
	} `toml:"neighbor"`
}

// LoadStatic reads static entries from path. Files ending in .json are
// parsed as JSON, anything else as TOML.
func LoadStatic(path string) ([]Entry, error) {
	if strings.EqualFold(filepath.Ext(path), ".json") {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("could not read %s", path)
		}
		return ParseStaticJSON(data)
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("could not read %s", path)
	}
	defer f.Close()
	return ParseStaticTOML(f)
}

// ParseStaticTOML decodes [[neighbor]] tables.
func ParseStaticTOML(r io.Reader) ([]Entry, error) {
	var file staticFile
	if _, err := toml.NewDecoder(r).Decode(&file); err != nil {
		return nil, errorutil.NewWithErr(err).Msgf("invalid static neighbor file")
	}

	entries := make([]Entry, 0, len(file.Neighbor))
	for i, n := range file.Neighbor {
		e, err := parseStatic(n.IP, n.MAC)
		if err != nil {
			return nil, fmt.Errorf("neighbor %d: %w", i, err)
		}
		entries = append(entries, e)
	}
	return entries, nil
}

// ParseStaticJSON decodes either a bare array of {"ip","mac"} objects or an
// object holding that array under "neighbors".
func ParseStaticJSON(data []byte) ([]Entry, error) {
	if !gjson.ValidBytes(data) {
		return nil, fmt.Errorf("invalid static neighbor file: malformed json")
	}
	list := gjson.ParseBytes(data)
	if list.IsObject() {
		list = list.Get("neighbors")
	}
	if !list.IsArray() {
		return nil, fmt.Errorf("invalid static neighbor file: expected an array of neighbors")
	}

	var (
		entries []Entry
		err     error
	)
	list.ForEach(func(_, value gjson.Result) bool {
		var e Entry
		e, err = parseStatic(value.Get("ip").String(), value.Get("mac").String())
		if err != nil {
			err = fmt.Errorf("neighbor %d: %w", len(entries), err)
			return false
		}
		entries = append(entries, e)
		return true
	})
	if err != nil {
		return nil, err
	}
	return entries, nil
}

func parseStatic(ipStr, macStr string) (Entry, error) {
	ip, err := netip.ParseAddr(ipStr)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid ip %q", ipStr)
	}
	if !ip.Unmap().Is4() {
		return Entry{}, fmt.Errorf("%s is not an ipv4 address", ip)
	}
	mac, err := arp.ParseEthernetAddr(macStr)
	if err != nil {
		return Entry{}, fmt.Errorf("invalid mac %q", macStr)
	}
	return Entry{IP: ip.Unmap(), MAC: mac}, nil
}
