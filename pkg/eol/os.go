package eol

import (
	"strings"

	log "github.com/sirupsen/logrus"
)

// osImagePrefixes maps the leading words of a node's osImage to an OS type.
// Order matters: longer prefixes first.
var osImagePrefixes = []struct {
	prefix string
	osType string
}{
	{"debian gnu/linux", "debian"},
	{"debian", "debian"},
	{"ubuntu", "ubuntu"},
	{"alpine linux", "alpine"},
	{"centos stream", "centos-stream"},
	{"centos linux", "centos"},
	{"centos", "centos"},
	{"red hat enterprise linux", "rhel"},
	{"rocky linux", "rocky"},
	{"almalinux", "alma"},
	{"amazon linux", "amazon"},
	{"common base linux mariner", "mariner"},
	{"cbl-mariner", "mariner"},
	{"azure linux", "azurelinux"},
}

var debianCodenames = map[string]string{
	"buzz": "1", "rex": "1", "bo": "1",
	"hamm": "2", "slink": "2", "potato": "2",
	"woody": "3", "sarge": "3",
	"etch":     "4",
	"lenny":    "5",
	"squeeze":  "6",
	"wheezy":   "7",
	"jessie":   "8",
	"stretch":  "9",
	"buster":   "10",
	"bullseye": "11",
	"bookworm": "12",
	"trixie":   "13",
	"forky":    "14",
}

// splitOSImage extracts the OS type and version from a node osImage string.
func splitOSImage(osImage string) (osType, osVersion string) {
	lower := strings.ToLower(strings.TrimSpace(osImage))

	for _, p := range osImagePrefixes {
		if !strings.HasPrefix(lower, p.prefix) {
			continue
		}
		osType = p.osType
		rest := strings.Fields(lower[len(p.prefix):])
		for _, field := range rest {
			if v := strings.TrimPrefix(field, "v"); isNumericPrefix(v) {
				return osType, v
			}
		}
		// "Debian GNU/Linux trixie/sid" style images carry only a codename.
		for _, field := range rest {
			codename := strings.Trim(field, "()")
			if i := strings.IndexByte(codename, '/'); i >= 0 {
				codename = codename[:i]
			}
			if _, ok := debianCodenames[codename]; ok && osType == "debian" {
				return osType, codename
			}
		}
		return osType, ""
	}

	return "", ""
}

func isNumericPrefix(s string) bool {
	return s != "" && s[0] >= '0' && s[0] <= '9'
}

func majorOnly(v string) string {
	return strings.Split(v, ".")[0]
}

func majorMinor(v string) string {
	parts := strings.Split(v, ".")
	if len(parts) >= 2 {
		return parts[0] + "." + parts[1]
	}
	return v
}

// normalizeOSIdentifier maps an OS type and version to the endoflife.date
// product and release cycle names.
func normalizeOSIdentifier(osType, osVersion string) (product, release string) {
	product = strings.ToLower(osType)
	release = strings.ToLower(osVersion)

	switch product {
	case "debian":
		if isNumericPrefix(release) {
			release = majorOnly(release)
		} else if n, ok := debianCodenames[release]; ok {
			release = n
		} else {
			log.Debugf("EOL Check: Unmapped Debian codename '%s'. Using as is for API path.", osVersion)
		}
	case "ubuntu":
		release = majorMinor(strings.TrimSpace(strings.ReplaceAll(release, "lts", "")))
	case "alpine":
		release = majorMinor(release)
	case "centos", "centos-stream", "rhel", "rocky", "alma":
		release = majorOnly(release)
		if product == "rhel" {
			product = "redhat"
		}
		if product == "rocky" {
			product = "rocky-linux"
		}
		if product == "alma" {
			product = "almalinux"
		}
	case "amazon":
		product = "amazon-linux"
		release = majorOnly(release)
	case "mariner", "cbl-mariner":
		product = "cbl-mariner"
		release = majorOnly(release)
	case "azurelinux":
		product = "azure-linux"
		release = majorOnly(release)
	default:
		log.Debugf("EOL Check: OS type '%s' has no specific normalization rules. Using product='%s', release='%s'.", osType, product, release)
	}

	return product, release
}
