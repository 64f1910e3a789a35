package neighbor

import (
	"bufio"
	"bytes"
	"errors"
	"io"
	"net/netip"
	"os"
	"os/exec"
	"strings"

	"github.com/projectdiscovery/arpx/pkg/arp"
	errorutil "github.com/projectdiscovery/utils/errors"
	osutils "github.com/projectdiscovery/utils/os"
)

// ProcNetARP is the Linux neighbor table.
const ProcNetARP = "/proc/net/arp"

var ErrUnsupportedOS = errors.New("neighbor: reading the neighbor table is not supported on this OS")

// Entry is one IPv4 neighbor.
type Entry struct {
	IP  netip.Addr       `json:"ip"`
	MAC arp.EthernetAddr `json:"mac"`
}

// ReadOSTable reads the complete entries of the kernel's ARP table.
func ReadOSTable() ([]Entry, error) {
	switch {
	case osutils.IsLinux():
		f, err := os.Open(ProcNetARP)
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("could not open %s", ProcNetARP)
		}
		defer f.Close()
		return ParseProcNetARP(f)
	case osutils.IsOSX():
		out, err := exec.Command("arp", "-an").Output()
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("failed to execute arp -an")
		}
		return ParseDarwinARP(bytes.NewReader(out))
	case osutils.IsWindows():
		out, err := exec.Command("arp", "-a").Output()
		if err != nil {
			return nil, errorutil.NewWithErr(err).Msgf("failed to execute arp -a")
		}
		return ParseWindowsARP(bytes.NewReader(out))
	}
	return nil, ErrUnsupportedOS
}

// ParseProcNetARP parses the /proc/net/arp format:
//
//	IP address       HW type     Flags       HW address            Mask     Device
//	192.168.1.1      0x1         0x2         aa:bb:cc:dd:ee:ff     *        eth0
func ParseProcNetARP(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	// header
	if !scanner.Scan() {
		return entries, scanner.Err()
	}

	for scanner.Scan() {
		fields := strings.Fields(scanner.Text())
		if len(fields) < 6 {
			continue
		}
		// flags 0x0 is an incomplete entry
		if fields[2] == "0x0" {
			continue
		}
		if e, ok := makeEntry(fields[0], fields[3]); ok {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}

// ParseDarwinARP parses BSD style `arp -an` output:
//
//	? (192.168.1.1) at aa:bb:cc:dd:ee:ff on en0 ifscope [ethernet]
//	? (192.168.1.7) at (incomplete) on en0 ifscope [ethernet]
func ParseDarwinARP(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		ipStart := strings.Index(line, "(")
		ipEnd := strings.Index(line, ")")
		if ipStart == -1 || ipEnd == -1 || ipStart >= ipEnd {
			continue
		}
		ipStr := line[ipStart+1 : ipEnd]

		atIndex := strings.Index(line, " at ")
		if atIndex == -1 {
			continue
		}
		rest := strings.Fields(line[atIndex+4:])
		if len(rest) == 0 {
			continue
		}
		if e, ok := makeEntry(ipStr, rest[0]); ok {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}

// ParseWindowsARP parses `arp -a` output on Windows, which lists one table
// per interface:
//
//	Interface: 192.168.1.100 --- 0xa
//	  Internet Address      Physical Address      Type
//	  192.168.1.1           aa-bb-cc-dd-ee-ff     dynamic
func ParseWindowsARP(r io.Reader) ([]Entry, error) {
	var entries []Entry
	scanner := bufio.NewScanner(r)

	inTable := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		switch {
		case line == "":
			continue
		case strings.HasPrefix(line, "Interface:"):
			inTable = false
			continue
		case strings.Contains(line, "Internet Address") && strings.Contains(line, "Physical Address"):
			inTable = true
			continue
		case !inTable:
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			continue
		}
		if e, ok := makeEntry(fields[0], fields[1]); ok {
			entries = append(entries, e)
		}
	}
	return entries, scanner.Err()
}

// makeEntry keeps complete unicast IPv4 entries only.
func makeEntry(ipStr, macStr string) (Entry, bool) {
	ip, err := netip.ParseAddr(ipStr)
	if err != nil || !ip.Is4() {
		return Entry{}, false
	}
	mac, err := parseLooseMAC(macStr)
	if err != nil || mac == (arp.EthernetAddr{}) || mac.IsBroadcast() {
		return Entry{}, false
	}
	return Entry{IP: ip, MAC: mac}, true
}

// parseLooseMAC also accepts the unpadded octets BSD arp prints
// (0:1b:63:84:45:e6).
func parseLooseMAC(s string) (arp.EthernetAddr, error) {
	parts := strings.FieldsFunc(s, func(r rune) bool { return r == ':' || r == '-' })
	if len(parts) != arp.EthernetAddrLen {
		return arp.ParseEthernetAddr(s)
	}
	for i, p := range parts {
		if len(p) == 1 {
			parts[i] = "0" + p
		}
	}
	return arp.ParseEthernetAddr(strings.Join(parts, ":"))
}
