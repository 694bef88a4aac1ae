package internal

import (
	"log"
	"os"
	"os/user"
	"regexp"
	"sort"
	"strings"

	"github.com/earthboundkid/versioninfo/v2"
)

var sensitiveRegex = regexp.MustCompile(`(?i)(PASSWORD|API_KEY|ACCESS_KEY|SECRET|TOKEN)`)

// StartupInfo logs the build version, the running user and the process
// environment (secrets masked) at the start of a pipeline run.
func StartupInfo() {
	log.Printf("Version: %s", versioninfo.Short())
	log.Printf("PID: %d", os.Getpid())

	if currentUser, err := user.Current(); err != nil {
		log.Printf("Error getting current user: %v", err)
	} else {
		log.Printf("User: uid=%s(%s) gid=%s", currentUser.Uid, currentUser.Username, currentUser.Gid)
	}

	environ := os.Environ()
	sort.Strings(environ)
	log.Println("Environment variables")
	for _, entry := range environ {
		kv := strings.SplitN(entry, "=", 2)
		if sensitiveRegex.MatchString(kv[0]) {
			log.Printf("  %s: ********", kv[0])
		} else {
			log.Printf("  %s: %s", kv[0], kv[1])
		}
	}
}
