package runner

import (
	"github.com/projectdiscovery/arpx/pkg/version"
	"github.com/projectdiscovery/gologger"
)

const banner = `
   ___ ________  __ __
  / _ ` + "`" + `/ __/ _ \/ // /
  \_,_/_/ / .__/_\_\_\
         /_/
`

// showBanner is used to show the banner to the user
func showBanner() {
	gologger.Print().Msgf("%s\n", banner)
	gologger.Print().Msgf("\t\t%s\n\n", au.Faint(version.GetVersion()))
}
