package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"

	"github.com/olekukonko/tablewriter"
	"go.uber.org/zap"

	"github.com/licshop/ordermgr/internal/config"
	"github.com/licshop/ordermgr/internal/domain"
	"github.com/licshop/ordermgr/internal/orderapi"
	"github.com/licshop/ordermgr/internal/store"
)

func usage() {
	fmt.Println("Usage: orderctl <command> [options]")
	fmt.Println()
	fmt.Println("Commands:")
	fmt.Println("  list       [-page N] [-limit N] [-search Q]   list orders")
	fmt.Println("  get        <id>                               show one order")
	fmt.Println("  add        [-customer ...] [-product ...]     create an order")
	fmt.Println("  update     <id> [-customer ...] [...]         patch an order")
	fmt.Println("  remove     <id>                               delete an order")
	fmt.Println("  duplicate  <id>                               clone an order")
	fmt.Println("  confirm    <id>                               confirm payment")
	fmt.Println("  provision  <id>                               provision the resource")
	fmt.Println("  export     [-o file]                          download CSV")
	fmt.Println("  import     <file>                             upload CSV")
}

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load configuration: %v\n", err)
		os.Exit(1)
	}

	// Initialize logger; the CLI keeps its own output clean
	logger := zap.NewNop()
	if os.Getenv("ORDERCTL_DEBUG") != "" {
		logger, _ = zap.NewDevelopment()
	}
	defer logger.Sync()

	client := orderapi.NewClient(cfg.API, logger)
	st := store.New(client, cfg.PageSize, logger)
	ctx := context.Background()

	command := os.Args[1]
	args := os.Args[2:]

	switch command {
	case "list":
		err = runList(ctx, st, args)
	case "get":
		err = runGet(ctx, client, args)
	case "add":
		err = runAdd(ctx, st, args)
	case "update":
		err = runUpdate(ctx, st, args)
	case "remove":
		err = runSimple(ctx, args, st.Remove)
	case "duplicate":
		err = runDuplicate(ctx, st, args)
	case "confirm":
		err = runSimple(ctx, args, st.ConfirmPayment)
	case "provision":
		err = runSimple(ctx, args, st.ProvisionResource)
	case "export":
		err = runExport(ctx, st, args)
	case "import":
		err = runImport(ctx, st, args)
	default:
		usage()
		os.Exit(1)
	}

	if err != nil {
		fmt.Fprintf(os.Stderr, "%v\n", err)
		os.Exit(1)
	}
}

func runList(ctx context.Context, st *store.Store, args []string) error {
	fs := flag.NewFlagSet("list", flag.ExitOnError)
	page := fs.Int("page", 1, "page number")
	limit := fs.Int("limit", 0, "page size")
	search := fs.String("search", "", "search filter")
	fs.Parse(args)

	if *limit > 0 {
		if err := st.SetPageSize(ctx, *limit); err != nil {
			return err
		}
	}
	if *search != "" {
		if err := st.SetSearch(ctx, *search); err != nil {
			return err
		}
	}
	if err := st.SetPage(ctx, *page); err != nil {
		return err
	}

	rows := st.Orders()
	table := tablewriter.NewWriter(os.Stdout)
	table.Header([]string{"OrderNo", "Customer", "Product", "Amount", "Payment", "Resource", "ID"})
	for _, o := range rows {
		amount := ""
		if o.Amount != nil {
			amount = strconv.FormatFloat(*o.Amount, 'f', -1, 64)
		}
		table.Append([]string{
			o.OrderNo,
			o.CustomerName,
			o.ProductID,
			amount,
			o.PaymentStatus.String(),
			o.ResourceStatus.String(),
			o.ID,
		})
	}
	table.Render()
	fmt.Printf("page %d, %d of %d orders\n", st.Page(), len(rows), st.Total())
	return nil
}

func runGet(ctx context.Context, client *orderapi.Client, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: orderctl get <id>")
	}
	o, err := client.GetOrder(ctx, args[0])
	if err != nil {
		return err
	}
	printOrder(o)
	return nil
}

func runAdd(ctx context.Context, st *store.Store, args []string) error {
	fs := flag.NewFlagSet("add", flag.ExitOnError)
	patch := patchFlags(fs)
	fs.Parse(args)

	created, err := st.Add(ctx, patch.collect(fs))
	if err != nil {
		return err
	}
	fmt.Printf("created order %s (id %s)\n", created.OrderNo, created.ID)
	return nil
}

func runUpdate(ctx context.Context, st *store.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: orderctl update <id> [options]")
	}
	id := args[0]

	fs := flag.NewFlagSet("update", flag.ExitOnError)
	patch := patchFlags(fs)
	fs.Parse(args[1:])

	updated, err := st.Update(ctx, id, patch.collect(fs))
	if err != nil {
		return err
	}
	fmt.Printf("updated order %s\n", updated.OrderNo)
	return nil
}

func runDuplicate(ctx context.Context, st *store.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: orderctl duplicate <id>")
	}
	dup, err := st.Duplicate(ctx, args[0])
	if err != nil {
		return err
	}
	fmt.Printf("duplicated as order %s (id %s)\n", dup.OrderNo, dup.ID)
	return nil
}

func runSimple(ctx context.Context, args []string, op func(context.Context, string) error) error {
	if len(args) < 1 {
		return fmt.Errorf("an order id is required")
	}
	if err := op(ctx, args[0]); err != nil {
		return err
	}
	fmt.Println("ok")
	return nil
}

func runExport(ctx context.Context, st *store.Store, args []string) error {
	fs := flag.NewFlagSet("export", flag.ExitOnError)
	out := fs.String("o", "", "output file (default stdout)")
	fs.Parse(args)

	data, err := st.ExportCSV(ctx)
	if err != nil {
		return err
	}
	if *out == "" {
		_, err = os.Stdout.Write(data)
		return err
	}
	if err := os.WriteFile(*out, data, 0o644); err != nil {
		return err
	}
	fmt.Printf("wrote %s\n", *out)
	return nil
}

func runImport(ctx context.Context, st *store.Store, args []string) error {
	if len(args) < 1 {
		return fmt.Errorf("usage: orderctl import <file>")
	}
	f, err := os.Open(args[0])
	if err != nil {
		return err
	}
	defer f.Close()

	res, err := st.ImportCSV(ctx, args[0], f)
	if err != nil {
		return err
	}
	fmt.Printf("imported %d rows, %d total\n", res.Imported, res.Total)
	return nil
}

// orderFlags maps CLI flags onto an OrderPatch, only carrying the flags that
// were explicitly set.
type orderFlags struct {
	customer *string
	address  *string
	product  *string
	pack     *string
	taxcode  *string
	tel      *string
	email    *string
	note     *string
	partner  *string
	employee *string
	amount   *float64
}

func patchFlags(fs *flag.FlagSet) *orderFlags {
	return &orderFlags{
		customer: fs.String("customer", "", "customer name"),
		address:  fs.String("address", "", "customer address"),
		product:  fs.String("product", "", "product code"),
		pack:     fs.String("pack", "", "pack code"),
		taxcode:  fs.String("taxcode", "", "tax code"),
		tel:      fs.String("tel", "", "phone number"),
		email:    fs.String("email", "", "email"),
		note:     fs.String("note", "", "note"),
		partner:  fs.String("partner", "", "partner code"),
		employee: fs.String("employee", "", "employee code"),
		amount:   fs.Float64("amount", 0, "order amount"),
	}
}

func (f *orderFlags) collect(fs *flag.FlagSet) domain.OrderPatch {
	var patch domain.OrderPatch
	fs.Visit(func(fl *flag.Flag) {
		switch fl.Name {
		case "customer":
			patch.CustomerName = f.customer
		case "address":
			patch.CustomerAddress = f.address
		case "product":
			patch.ProductID = f.product
		case "pack":
			patch.PackCode = f.pack
		case "taxcode":
			patch.TaxCode = f.taxcode
		case "tel":
			patch.Tel = f.tel
		case "email":
			patch.Email = f.email
		case "note":
			patch.Note = f.note
		case "partner":
			patch.PartnerCode = f.partner
		case "employee":
			patch.EmployeeCode = f.employee
		case "amount":
			patch.Amount = f.amount
		}
	})
	return patch
}

func printOrder(o *domain.Order) {
	fmt.Printf("Order %s (id %s)\n", o.OrderNo, o.ID)
	fmt.Printf("  Product:   %s / %s\n", o.ProductID, o.PackCode)
	fmt.Printf("  Customer:  %s, %s\n", o.CustomerName, o.CustomerAddress)
	fmt.Printf("  Contact:   %s %s\n", o.Tel, o.Email)
	if o.Amount != nil {
		fmt.Printf("  Amount:    %s\n", strconv.FormatFloat(*o.Amount, 'f', -1, 64))
	}
	fmt.Printf("  Payment:   %s (%s)", o.PaymentStatus, o.PaymentType)
	if o.PaymentDate != nil {
		fmt.Printf(" at %s", *o.PaymentDate)
	}
	fmt.Println()
	fmt.Printf("  Resource:  %s\n", o.ResourceStatus)
	if o.Note != "" {
		fmt.Printf("  Note:      %s\n", o.Note)
	}
}
