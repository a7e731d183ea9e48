package testparser

import (
	"bufio"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/acarl005/stripansi"
)

var (
	cargoResultRegex = regexp.MustCompile(`test result: \w+\.\s*(\d+) passed;\s*(\d+) failed;\s*(\d+) ignored;\s*(\d+) measured;\s*(\d+) filtered out(?:;\s*finished in ([0-9.]+)s)?`)
	cargoCaseRegex   = regexp.MustCompile(`^test (.+?) \.\.\. FAILED$`)
	cargoPanicRegex  = regexp.MustCompile(`^---- (.+?) stdout ----$`)
)

// CargoParser parses the output of libtest harness executables and of
// `cargo test --doc`.
type CargoParser struct{}

// Name returns the parser name.
func (p *CargoParser) Name() string {
	return "cargo"
}

// Parse extracts test counts from libtest output. Each harness prints a
// summary line like:
//
//	test result: ok. 47 passed; 0 failed; 3 ignored; 0 measured; 0 filtered out; finished in 0.12s
//
// Outputs of several executables may be concatenated; their counts are summed.
// Color escapes are ignored.
func (p *CargoParser) Parse(output string) TestCounts {
	output = stripansi.Strip(output)
	counts := TestCounts{}

	for _, match := range cargoResultRegex.FindAllStringSubmatch(output, -1) {
		passed, _ := strconv.Atoi(match[1])
		failed, _ := strconv.Atoi(match[2])
		ignored, _ := strconv.Atoi(match[3])
		filtered, _ := strconv.Atoi(match[5])

		counts.Passed += passed
		counts.Failed += failed
		counts.Skipped += ignored
		counts.Filtered += filtered
		if match[6] != "" {
			if d, err := time.ParseDuration(match[6] + "s"); err == nil {
				counts.Elapsed += d
			}
		}
		counts.Parsed = true
	}
	counts.Total = counts.Passed + counts.Failed + counts.Skipped
	counts.FailedTests = parseFailures(output)

	return counts
}

// parseFailures collects failed test names from "test NAME ... FAILED" lines
// and from the indented list after a "failures:" header, which is all that
// quiet mode prints. The first line of each test's captured stdout section
// becomes its reason.
func parseFailures(output string) []FailedTest {
	var failed []FailedTest
	seen := make(map[string]bool)
	add := func(name string) {
		if !seen[name] {
			seen[name] = true
			failed = append(failed, FailedTest{Name: name})
		}
	}
	reasons := make(map[string]string)
	current := ""
	inList, listed := false, false

	scanner := bufio.NewScanner(strings.NewReader(output))
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimRight(scanner.Text(), "\r")
		if line == "failures:" {
			inList, listed = true, false
			continue
		}
		if inList {
			name, indented := strings.CutPrefix(line, "    ")
			switch {
			case indented && strings.TrimSpace(name) != "" && !strings.HasPrefix(name, " "):
				add(name)
				listed = true
				continue
			case line == "" && !listed:
				continue
			}
			inList = false
		}
		if m := cargoCaseRegex.FindStringSubmatch(line); m != nil {
			add(m[1])
			continue
		}
		if m := cargoPanicRegex.FindStringSubmatch(line); m != nil {
			current = m[1]
			continue
		}
		if current != "" && strings.TrimSpace(line) != "" {
			if _, ok := reasons[current]; !ok {
				reasons[current] = strings.TrimSpace(line)
			}
			current = ""
		}
	}

	for i := range failed {
		failed[i].Reason = reasons[failed[i].Name]
	}
	return failed
}
