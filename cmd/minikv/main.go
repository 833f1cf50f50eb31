package main

import (
	"bufio"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/pflag"

	"github.com/wesleyyan-sb/minikv"
)

func main() {
	path := pflag.String("path", "minikv-data", "Directory to open the store in")
	key := pflag.String("key", "", "32-hex-character encryption key (omit for unencrypted)")
	pageSize := pflag.Int("page-size", 0, "Growth granularity in bytes (0 uses the default)")
	logLevel := pflag.String("log-level", "info", "off|error|warn|info|debug|verbose")
	pflag.Parse()

	minikv.SetLogLevel(parseLevel(*logLevel))

	opts := []minikv.Option{}
	if *pageSize > 0 {
		opts = append(opts, minikv.WithPageSize(*pageSize))
	}
	if *key != "" {
		opts = append(opts, minikv.WithEncryptionKey(*key))
	}

	db, err := minikv.Open(*path, opts...)
	if err != nil {
		fmt.Printf("Error opening store: %v\n", err)
		os.Exit(1)
	}
	defer db.Close()

	fmt.Println("minikv shell")
	fmt.Println("Commands: put-str/put-i32/put-i64/put-f32/put-f64/put-bool <key> <val>, get-<type> <key>, del <key>, stat, clear, exit")

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		run(db, strings.Fields(scanner.Text()))
	}
}

func parseLevel(s string) minikv.Level {
	switch strings.ToLower(s) {
	case "off":
		return minikv.LogOff
	case "error":
		return minikv.LogError
	case "warn":
		return minikv.LogWarn
	case "debug":
		return minikv.LogDebug
	case "verbose":
		return minikv.LogVerbose
	default:
		return minikv.LogInfo
	}
}

func run(db *minikv.DB, parts []string) {
	if len(parts) == 0 {
		return
	}
	cmd := strings.ToLower(parts[0])
	switch cmd {
	case "put-str":
		withArgs(parts, 3, func() { report(db.PutStr(parts[1], strings.Join(parts[2:], " "))) })
	case "put-i32":
		withArgs(parts, 3, func() {
			v, err := strconv.ParseInt(parts[2], 10, 32)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			report(db.PutI32(parts[1], int32(v)))
		})
	case "put-i64":
		withArgs(parts, 3, func() {
			v, err := strconv.ParseInt(parts[2], 10, 64)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			report(db.PutI64(parts[1], v))
		})
	case "put-f32":
		withArgs(parts, 3, func() {
			v, err := strconv.ParseFloat(parts[2], 32)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			report(db.PutF32(parts[1], float32(v)))
		})
	case "put-f64":
		withArgs(parts, 3, func() {
			v, err := strconv.ParseFloat(parts[2], 64)
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			report(db.PutF64(parts[1], v))
		})
	case "put-bool":
		withArgs(parts, 3, func() {
			v, err := strconv.ParseBool(parts[2])
			if err != nil {
				fmt.Printf("Error: %v\n", err)
				return
			}
			report(db.PutBool(parts[1], v))
		})
	case "get-str":
		withArgs(parts, 2, func() { v, err := db.GetStr(parts[1]); printResult(v, err) })
	case "get-i32":
		withArgs(parts, 2, func() { v, err := db.GetI32(parts[1]); printResult(v, err) })
	case "get-i64":
		withArgs(parts, 2, func() { v, err := db.GetI64(parts[1]); printResult(v, err) })
	case "get-f32":
		withArgs(parts, 2, func() { v, err := db.GetF32(parts[1]); printResult(v, err) })
	case "get-f64":
		withArgs(parts, 2, func() { v, err := db.GetF64(parts[1]); printResult(v, err) })
	case "get-bool":
		withArgs(parts, 2, func() { v, err := db.GetBool(parts[1]); printResult(v, err) })
	case "del":
		withArgs(parts, 2, func() { report(db.Delete(parts[1])) })
	case "stat":
		stats, err := db.Stats()
		if err != nil {
			fmt.Printf("Error: %v\n", err)
			return
		}
		fmt.Printf("dir=%s keys=%d frames=%d need_trim=%v file_size=%d\n",
			stats.Dir, stats.KeyCount, stats.FrameCount, stats.NeedTrim, stats.FileSize)
	case "clear":
		report(db.ClearData())
	case "exit", "quit":
		os.Exit(0)
	default:
		fmt.Println("Unknown command")
	}
}

func withArgs(parts []string, n int, fn func()) {
	if len(parts) < n {
		fmt.Println("Error: too few arguments")
		return
	}
	fn()
}

func report(err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Println("OK")
}

func printResult(v any, err error) {
	if err != nil {
		fmt.Printf("Error: %v\n", err)
		return
	}
	fmt.Printf("%v\n", v)
}
