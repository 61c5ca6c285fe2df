package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/pior/rdb"
	"github.com/pior/rdb/resp"
)

func main() {
	addr := flag.String("addr", "127.0.0.1:6379", "server address")
	flag.Parse()

	fmt.Println("rdb CLI Tool")
	fmt.Println("============")
	fmt.Println("Commands: get <key>, set <key> <value>, del <key>, ping, scan [match], stats, quit")
	fmt.Println()

	client, err := rdb.NewFromOptions(rdb.WithAddr(*addr))
	if err != nil {
		fmt.Printf("Failed to create client: %v\n", err)
		os.Exit(1)
	}
	defer client.Close()

	scanner := bufio.NewScanner(os.Stdin)
	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		parts := strings.Fields(line)
		command := strings.ToLower(parts[0])
		ctx := context.Background()

		switch command {
		case "get":
			if len(parts) != 2 {
				fmt.Println("Usage: get <key>")
				continue
			}
			handleCall(ctx, client, "GET", parts[1])

		case "set":
			if len(parts) != 3 {
				fmt.Println("Usage: set <key> <value>")
				continue
			}
			handleCall(ctx, client, "SET", parts[1], parts[2])

		case "del", "delete":
			if len(parts) != 2 {
				fmt.Println("Usage: del <key>")
				continue
			}
			handleCall(ctx, client, "DEL", parts[1])

		case "ping":
			handleCall(ctx, client, "PING")

		case "scan":
			match := "*"
			if len(parts) == 2 {
				match = parts[1]
			}
			handleScan(ctx, client, match)

		case "stats":
			handleStats(client)

		case "quit", "exit":
			fmt.Println("Goodbye!")
			return

		default:
			fmt.Printf("Unknown command: %s\n", command)
		}
	}

	if err := scanner.Err(); err != nil {
		fmt.Printf("Error reading input: %v\n", err)
	}
}

func handleCall(ctx context.Context, client *rdb.Client, args ...any) {
	start := time.Now()
	reply, err := client.Call(ctx, args...)
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Error: %v (took %v)\n", err, duration)
		return
	}
	if reply.IsNil() {
		fmt.Printf("(nil) (took %v)\n", duration)
		return
	}
	if reply.Type == resp.TypeInteger {
		fmt.Printf("(integer) %d (took %v)\n", reply.Int, duration)
		return
	}
	fmt.Printf("%q (took %v)\n", reply.Str, duration)
}

func handleScan(ctx context.Context, client *rdb.Client, match string) {
	start := time.Now()
	count := 0
	err := client.ScanEach(ctx, match, 100, func(elem []byte) error {
		count++
		fmt.Printf("  %s\n", elem)
		return nil
	})
	duration := time.Since(start)

	if err != nil {
		fmt.Printf("Scan error: %v (took %v)\n", err, duration)
		return
	}
	fmt.Printf("Scanned %d keys (took %v)\n", count, duration)
}

func handleStats(client *rdb.Client) {
	calls, retries, errors := client.Stats()
	fmt.Println("Client Statistics:")
	fmt.Printf("  Calls:   %d\n", calls)
	fmt.Printf("  Retries: %d\n", retries)
	fmt.Printf("  Errors:  %d\n", errors)
	fmt.Printf("  Connected: %v\n", client.Connected())
}
