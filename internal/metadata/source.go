package metadata

import (
	"bufio"
	"bytes"
	"context"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/cockroachdb/errors"
)

const fetchTimeout = 30 * time.Second

// IsRemote reports whether location names an http(s) resource.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

// ReadSource returns the lines of the interface description at location,
// which is either a local path or an http(s) URL.
func ReadSource(ctx context.Context, location string) ([]string, error) {
	var (
		source io.ReadCloser
		err    error
	)
	if IsRemote(location) {
		source, err = queryGet(ctx, location)
	} else {
		source, err = os.Open(location)
	}
	if err != nil {
		return nil, errors.Wrapf(err, "reading interface description %s", location)
	}
	defer source.Close()

	lines, err := ScanLines(source)
	if err != nil {
		return nil, errors.Wrapf(err, "reading interface description %s", location)
	}
	return lines, nil
}

// ScanLines reads source line by line, dropping carriage returns.
func ScanLines(source io.Reader) ([]string, error) {
	var lines []string
	scanner := bufio.NewScanner(source)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	for scanner.Scan() {
		lines = append(lines, scanner.Text())
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	return lines, nil
}

func queryGet(ctx context.Context, url string) (io.ReadCloser, error) {
	ctx, cancel := context.WithTimeout(ctx, fetchTimeout)
	defer cancel()

	request, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, err
	}

	response, err := http.DefaultClient.Do(request)
	if err != nil {
		return nil, err
	}

	defer response.Body.Close()
	if response.StatusCode != http.StatusOK {
		return nil, errors.Newf("GET %s: unexpected status %s", url, response.Status)
	}

	data, err := io.ReadAll(response.Body)
	if err != nil {
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}
