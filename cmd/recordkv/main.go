package main

import (
	"fmt"
	"os"

	"github.com/fulldump/goconfig"
	"github.com/go-json-experiment/json"
	"github.com/go-json-experiment/json/jsontext"

	"github.com/fulldump/recordkv/bootstrap"
	"github.com/fulldump/recordkv/configuration"
)

var banner = `
 ____                        _ _  ____     __
|  _ \ ___  ___ ___  _ __ __| | |/ /\ \   / /
| |_) / _ \/ __/ _ \| '__/ _` + "`" + ` | ' /  \ \ / / 
|  _ <  __/ (_| (_) | | | (_| | . \   \ V /  
|_| \_\___|\___\___/|_|  \__,_|_|\_\   \_/   
                          version ` + bootstrap.VERSION + `
`

func main() {

	c := configuration.Default()
	goconfig.Read(&c)

	if c.Version {
		fmt.Println("Version:", bootstrap.VERSION)
		return
	}

	if c.ShowBanner {
		fmt.Println(banner)
	}

	if c.ShowConfig {
		json.MarshalWrite(os.Stdout, c, jsontext.WithIndent("    "))
		fmt.Println()
	}

	start, _ := bootstrap.Bootstrap(&c)
	start()
}
