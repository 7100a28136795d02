package main

import (
	"encoding/json"
	"fmt"
	"os"

	"github.com/fulldump/goconfig"

	"github.com/fulldump/tabledb/bootstrap"
	"github.com/fulldump/tabledb/configuration"
)

var VERSION = "dev"

var banner = `
 _____         _      _       ______ ______
|_   _|       | |    | |      |  _  \| ___ \
  | |    __ _ | |__  | |  ___ | | | || |_/ /
  | |   / _` + "`" + ` || '_ \ | | / _ \| | | || ___ \
  | |  | (_| || |_) || ||  __/| |/ / | |_/ /
  \_/   \__,_||_.__/ |_| \___||___/  \____/
                              version ` + VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		e := json.NewEncoder(os.Stdout)
		e.SetIndent("", "    ")
		e.Encode(c)
	}

	bootstrap.VERSION = VERSION

	start, _ := bootstrap.Bootstrap(c)
	start()
}
