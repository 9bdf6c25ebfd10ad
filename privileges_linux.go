//go:build linux

package pingline

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"
)

const capNetRaw = 13

// RequirePrivileges checks that raw ICMP sockets can be opened: root or CAP_NET_RAW
func RequirePrivileges() error {

	if os.Geteuid() == 0 {
		return nil
	}

	file, err := os.Open("/proc/self/status")
	if err != nil {
		return err
	}
	defer file.Close()

	capEff, err := parseCapEff(file)
	if err != nil {
		return err
	}

	if capEff&(1<<capNetRaw) == 0 {
		return fmt.Errorf("raw sockets require CAP_NET_RAW (or root); grant with: sudo setcap cap_net_raw+ep %s", os.Args[0])
	}

	return nil
}

// parseCapEff extracts the effective capability mask from a /proc/<pid>/status listing
func parseCapEff(reader io.Reader) (uint64, error) {

	scanner := bufio.NewScanner(reader)
	for scanner.Scan() {

		line := scanner.Text()
		if !strings.HasPrefix(line, "CapEff:") {
			continue
		}

		fields := strings.Fields(line)
		if len(fields) < 2 {
			break
		}

		return strconv.ParseUint(fields[1], 16, 64)
	}

	if err := scanner.Err(); err != nil {
		return 0, err
	}

	return 0, errors.New("CapEff not found in process status")
}
