package util

import (
	"fmt"

	"github.com/hetianyi/gofdfs/common"
)

func PrintLogo() {
	fmt.Print(`
   ____    ____    ______  ____    ______  _____
  / ___\  / __ \  / ____/ / __ \  / ____/ / ___/   GoFDFS::v` + common.VERSION + `
 / /_/\  / /_/ / / __/   / /_/ / / __/   /__  /    A FastDFS storage client.
 \____/  \____/ /_/     /_____/ /_/     /____/     github.com/hetianyi/gofdfs

`)
}
