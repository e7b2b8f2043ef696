package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"
	"net/http"
	"os"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"github.com/pkg/errors"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
)

type menuItem struct {
	ID    string  `json:"id"`
	Name  string  `json:"name"`
	Price float64 `json:"price"`
}

type orderLine struct {
	MenuItemID string `json:"menu_item_id"`
	Quantity   int    `json:"quantity"`
}

type order struct {
	ID         string      `json:"id"`
	Items      []orderLine `json:"items"`
	TotalPrice float64     `json:"total_price"`
}

func main() {
	app := &cli.App{
		Name:  "loadtest",
		Usage: "fire concurrent orders at a running food-ordering server",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "addr", Value: "http://localhost:8080", Usage: "server base URL"},
			&cli.IntFlag{Name: "requests", Value: 50, Usage: "orders to submit"},
			&cli.IntFlag{Name: "quantity", Value: 3, Usage: "quantity per order"},
			&cli.Float64Flag{Name: "price", Value: 5.0, Usage: "price of the generated menu item"},
			&cli.IntFlag{Name: "duplicates", Value: 10, Usage: "extra requests replaying one idempotency key"},
		},
		Action: run,
	}

	if err := app.Run(os.Args); err != nil {
		logrus.WithError(err).Fatal("load test failed")
	}
}

func run(c *cli.Context) error {
	log := logrus.New()
	client := &http.Client{Timeout: 10 * time.Second}
	base := c.String("addr")
	totalRequests := c.Int("requests")
	duplicates := c.Int("duplicates")
	quantity := c.Int("quantity")

	var before []order
	if err := call(client, http.MethodGet, base+"/orders/", nil, "", &before); err != nil {
		return errors.Wrap(err, "list orders")
	}

	var item menuItem
	err := call(client, http.MethodPost, base+"/menu/", map[string]interface{}{
		"name":  "loadtest-" + uuid.NewString()[:8],
		"price": c.Float64("price"),
	}, "", &item)
	if err != nil {
		return errors.Wrap(err, "create menu item")
	}
	log.WithFields(logrus.Fields{"menu_item_id": item.ID, "price": item.Price}).Info("menu item created")

	wantTotal := item.Price * float64(quantity)
	sharedKey := uuid.NewString()

	var successCount, duplicateCount, failCount, wrongTotal atomic.Int32
	var wg sync.WaitGroup
	start := time.Now()

	for i := 0; i < totalRequests+duplicates; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()

			key := ""
			if i >= totalRequests || i == 0 {
				key = sharedKey
			}

			var placed order
			err := call(client, http.MethodPost, base+"/orders/", map[string]interface{}{
				"items": []orderLine{{MenuItemID: item.ID, Quantity: quantity}},
			}, key, &placed)
			switch {
			case err == nil:
				successCount.Add(1)
				if math.Abs(placed.TotalPrice-wantTotal) > 1e-9 {
					wrongTotal.Add(1)
				}
			case errors.Is(err, errConflict):
				duplicateCount.Add(1)
			default:
				failCount.Add(1)
				log.WithError(err).Warn("order failed")
			}
		}(i)
	}

	wg.Wait()
	elapsed := time.Since(start)

	var after []order
	if err := call(client, http.MethodGet, base+"/orders/", nil, "", &after); err != nil {
		return errors.Wrap(err, "list orders")
	}
	created := len(after) - len(before)

	fmt.Println("========== LOAD TEST RESULTS ==========")
	fmt.Printf("Requests:         %d (+%d replayed keys)\n", totalRequests, duplicates)
	fmt.Printf("Successful:       %d\n", successCount.Load())
	fmt.Printf("Duplicates:       %d\n", duplicateCount.Load())
	fmt.Printf("Failed:           %d\n", failCount.Load())
	fmt.Printf("Wrong totals:     %d\n", wrongTotal.Load())
	fmt.Printf("Orders created:   %d\n", created)
	fmt.Printf("Duration:         %v\n", elapsed)
	fmt.Println("========================================")

	if successCount.Load() != int32(totalRequests) || duplicateCount.Load() != int32(duplicates) {
		return errors.Errorf("expected %d successes and %d duplicates, got %d/%d",
			totalRequests, duplicates, successCount.Load(), duplicateCount.Load())
	}
	if wrongTotal.Load() != 0 {
		return errors.Errorf("%d orders carried a total other than %.2f", wrongTotal.Load(), wantTotal)
	}
	if created != totalRequests {
		return errors.Errorf("expected %d new orders in the listing, got %d", totalRequests, created)
	}

	fmt.Println("PASS")
	return nil
}

var errConflict = errors.New("conflict")

func call(client *http.Client, method, url string, body interface{}, idempotencyKey string, dst interface{}) error {
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			return err
		}
	}

	req, err := http.NewRequest(method, url, &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusConflict {
		return errConflict
	}
	if resp.StatusCode != http.StatusOK {
		var detail struct {
			Detail string `json:"detail"`
		}
		json.NewDecoder(resp.Body).Decode(&detail)
		return errors.Errorf("%s %s: %d %s", method, url, resp.StatusCode, detail.Detail)
	}

	return json.NewDecoder(resp.Body).Decode(dst)
}
