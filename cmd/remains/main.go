// remains es la herramienta de administración del libro de existencias.
//
// Uso: remains <comando> [flags]
//
//	migrate                                      aplica migraciones embebidas
//	warehouse-add --name N [--address A] [--default]
//	warehouse-update --id ID [--name N] [--address A]
//	warehouse-default --id ID
//	warehouse-delete --id ID | warehouse-restore --id ID
//	warehouses [--all] [--limit N] [--offset N]
//	get      --product P [--mod M] [--stock S]
//	set      --product P [--mod M] [--stock S] --count N [--ref R]
//	decrease --product P [--mod M] [--stock S] --count N [--ref R]
//	delete   --product P [--mod M] [--stock S]
//	list     --product P
//	movements --product P [--limit N]
//	confirm  --file pedido.json (o - para stdin)
//
// Salida JSON por stdout; logs por stderr. Exit 2 cuando decrease apunta a una clave no inicializada.
// Los flags se validan antes de abrir la conexión a la base de datos.
package main

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/jhoicas/remains-ledger/internal/application/dto"
	"github.com/jhoicas/remains-ledger/internal/application/fulfillment"
	"github.com/jhoicas/remains-ledger/internal/application/inventory"
	"github.com/jhoicas/remains-ledger/internal/application/usecase"
	"github.com/jhoicas/remains-ledger/internal/domain"
	"github.com/jhoicas/remains-ledger/internal/domain/entity"
	"github.com/jhoicas/remains-ledger/internal/infrastructure/postgres"
	"github.com/jhoicas/remains-ledger/pkg/config"
	"github.com/jhoicas/remains-ledger/pkg/logger"
	"github.com/spf13/pflag"
)

const (
	exitOK         = 0
	exitError      = 1
	exitUntracked  = 2
	exitUsageError = 64
)

func main() {
	os.Exit(run(os.Args[1:], os.Stdout))
}

func run(args []string, stdout io.Writer) int {
	if len(args) == 0 {
		fmt.Fprintln(os.Stderr, "uso: remains <comando> [flags]")
		return exitUsageError
	}
	cmd, cmdArgs := args[0], args[1:]

	parse, ok := commands[cmd]
	if !ok {
		return fail(stdout, logger.Nop(), cmd, usageError{fmt.Errorf("comando desconocido: %s", cmd)})
	}
	act, err := parse(cmdArgs)
	if err != nil {
		return fail(stdout, logger.Nop(), cmd, err)
	}

	cfg, err := config.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "cargar configuración: %v\n", err)
		return exitError
	}
	log := logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	pool, err := postgres.NewPool(ctx, cfg.DB)
	if err != nil {
		log.Error().Err(err).Msg("conexión a PostgreSQL")
		return exitError
	}
	defer pool.Close()

	warehouseUC := usecase.NewWarehouseUseCase(postgres.NewWarehouseRepository(pool), usecase.WarehouseOptions{
		DefaultCacheTTL:   cfg.Ledger.DefaultCacheTTL(),
		ShowDeletedWindow: cfg.Ledger.ShowDeletedWindow(),
	}, log)
	txRunner := postgres.NewTxRunner(pool, cfg.Ledger.TxMaxRetries, log)
	ledger := inventory.NewLedgerUseCase(
		txRunner,
		postgres.NewRemainsRepository(pool),
		postgres.NewRemainsMovementRepository(pool),
		warehouseUC,
		log,
	)

	a := newApp(ledger, warehouseUC, fulfillment.NewConfirmOrderUseCase(txRunner, ledger, log), stdout)
	a.migrate = func(ctx context.Context) ([]string, error) { return postgres.Migrate(ctx, pool, log) }
	if err := act(ctx, a); err != nil {
		return fail(stdout, log, cmd, err)
	}
	return exitOK
}

// app agrupa los casos de uso sobre los que se ejecuta un comando ya parseado.
type app struct {
	ledger     *inventory.LedgerUseCase
	warehouses *usecase.WarehouseUseCase
	orders     *fulfillment.ConfirmOrderUseCase
	migrate    func(context.Context) ([]string, error)
	out        io.Writer
}

func newApp(
	ledger *inventory.LedgerUseCase,
	warehouses *usecase.WarehouseUseCase,
	orders *fulfillment.ConfirmOrderUseCase,
	out io.Writer,
) *app {
	return &app{ledger: ledger, warehouses: warehouses, orders: orders, out: out}
}

// action ejecuta un comando con los flags ya validados.
type action func(ctx context.Context, a *app) error

// commands parsea los flags de cada comando sin tocar la base de datos.
var commands = map[string]func(args []string) (action, error){
	"migrate":           parseMigrate,
	"warehouse-add":     parseWarehouseAdd,
	"warehouse-update":  parseWarehouseUpdate,
	"warehouse-default": parseWarehouseDefault,
	"warehouse-delete":  parseWarehouseByID("warehouse-delete", (*usecase.WarehouseUseCase).Delete),
	"warehouse-restore": parseWarehouseByID("warehouse-restore", (*usecase.WarehouseUseCase).Restore),
	"warehouses":        parseWarehouseList,
	"get":               parseGet,
	"set":               parseSet,
	"decrease":          parseDecrease,
	"delete":            parseDelete,
	"list":              parseList,
	"movements":         parseMovements,
	"confirm":           parseConfirm,
}

// keyFlags registra --product, --mod y --stock en el FlagSet.
func keyFlags(fs *pflag.FlagSet) *inventory.KeyInput {
	in := &inventory.KeyInput{}
	fs.StringVar(&in.ProductID, "product", "", "ID del producto (obligatorio)")
	fs.StringVar(&in.ModID, "mod", "", "ID de la modificación (vacío = sin modificación)")
	fs.StringVar(&in.StockID, "stock", "", "ID de la bodega (vacío = bodega por defecto)")
	return in
}

func newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SortFlags = false
	return fs
}

func parseFlags(fs *pflag.FlagSet, args []string, required ...string) error {
	if err := fs.Parse(args); err != nil {
		return usageError{err}
	}
	for _, name := range required {
		if !fs.Changed(name) {
			return usageError{fmt.Errorf("--%s es obligatorio", name)}
		}
	}
	return nil
}

func parseMigrate(args []string) (action, error) {
	if err := parseFlags(newFlagSet("migrate"), args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		applied, err := a.migrate(ctx)
		if err != nil {
			return err
		}
		return a.print(map[string]any{"applied": applied})
	}, nil
}

func parseWarehouseAdd(args []string) (action, error) {
	fs := newFlagSet("warehouse-add")
	var in dto.CreateWarehouseRequest
	fs.StringVar(&in.Name, "name", "", "nombre de la bodega")
	fs.StringVar(&in.Address, "address", "", "dirección")
	fs.BoolVar(&in.IsDefault, "default", false, "marcar como bodega por defecto")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		out, err := a.warehouses.Create(ctx, in)
		if err != nil {
			return err
		}
		return a.print(out)
	}, nil
}

func parseWarehouseUpdate(args []string) (action, error) {
	fs := newFlagSet("warehouse-update")
	id := fs.String("id", "", "ID de la bodega")
	name := fs.String("name", "", "nuevo nombre")
	address := fs.String("address", "", "nueva dirección")
	if err := parseFlags(fs, args, "id"); err != nil {
		return nil, err
	}
	var in dto.UpdateWarehouseRequest
	if fs.Changed("name") {
		in.Name = name
	}
	if fs.Changed("address") {
		in.Address = address
	}
	if in.Name == nil && in.Address == nil {
		return nil, usageError{errors.New("indique --name o --address")}
	}
	return func(ctx context.Context, a *app) error {
		out, err := a.warehouses.Update(ctx, *id, in)
		if err != nil {
			return err
		}
		return a.print(out)
	}, nil
}

func parseWarehouseDefault(args []string) (action, error) {
	return parseWarehouseByID("warehouse-default", (*usecase.WarehouseUseCase).SetDefault)(args)
}

func parseWarehouseByID(name string, op func(*usecase.WarehouseUseCase, context.Context, string) error) func([]string) (action, error) {
	return func(args []string) (action, error) {
		fs := newFlagSet(name)
		id := fs.String("id", "", "ID de la bodega")
		if err := parseFlags(fs, args, "id"); err != nil {
			return nil, err
		}
		return func(ctx context.Context, a *app) error {
			if err := op(a.warehouses, ctx, *id); err != nil {
				return err
			}
			out, err := a.warehouses.GetByID(ctx, *id)
			if err != nil {
				return err
			}
			return a.print(out)
		}, nil
	}
}

func parseWarehouseList(args []string) (action, error) {
	fs := newFlagSet("warehouses")
	all := fs.Bool("all", false, "incluir eliminadas recientemente")
	var page dto.PageRequest
	fs.IntVar(&page.Limit, "limit", 20, "límite")
	fs.IntVar(&page.Offset, "offset", 0, "offset")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	viewer := entity.Anonymous
	if *all {
		viewer = entity.Staff
	}
	return func(ctx context.Context, a *app) error {
		out, err := a.warehouses.List(ctx, viewer, page)
		if err != nil {
			return err
		}
		return a.print(out)
	}, nil
}

func parseGet(args []string) (action, error) {
	fs := newFlagSet("get")
	in := keyFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		key, err := a.ledger.ResolveKey(ctx, *in)
		if err != nil {
			return err
		}
		count, err := a.ledger.Remains(ctx, inventory.KeyInput{ProductID: key.ProductID, ModID: key.Mod(), StockID: key.StockID})
		if err != nil {
			return err
		}
		return a.print(dto.RemainsCountResponse{ProductID: key.ProductID, ModID: key.Mod(), StockID: key.StockID, Count: count})
	}, nil
}

func parseSet(args []string) (action, error) {
	fs := newFlagSet("set")
	in := keyFlags(fs)
	count := fs.Int64("count", 0, "cantidad absoluta")
	ref := fs.String("ref", "", "referencia para el diario")
	if err := parseFlags(fs, args, "count"); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		r, err := a.ledger.SetCount(ctx, *in, *count, *ref)
		if err != nil {
			return err
		}
		return a.print(dto.ToRemainsResponse(r))
	}, nil
}

func parseDecrease(args []string) (action, error) {
	fs := newFlagSet("decrease")
	in := keyFlags(fs)
	count := fs.Int64("count", 0, "cantidad a descontar")
	ref := fs.String("ref", "", "referencia para el diario")
	if err := parseFlags(fs, args, "count"); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		r, err := a.ledger.Decrease(ctx, *in, *count, *ref)
		if err != nil {
			return err
		}
		return a.print(dto.ToRemainsResponse(r))
	}, nil
}

func parseDelete(args []string) (action, error) {
	fs := newFlagSet("delete")
	in := keyFlags(fs)
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		if err := a.ledger.Delete(ctx, *in); err != nil {
			return err
		}
		return a.print(map[string]bool{"deleted": true})
	}, nil
}

func parseList(args []string) (action, error) {
	fs := newFlagSet("list")
	productID := fs.String("product", "", "ID del producto")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		list, err := a.ledger.ListByProduct(ctx, *productID)
		if err != nil {
			return err
		}
		return a.print(dto.ToRemainsList(list))
	}, nil
}

func parseMovements(args []string) (action, error) {
	fs := newFlagSet("movements")
	productID := fs.String("product", "", "ID del producto")
	limit := fs.Int("limit", 50, "máximo de movimientos")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	return func(ctx context.Context, a *app) error {
		list, err := a.ledger.Movements(ctx, *productID, *limit)
		if err != nil {
			return err
		}
		return a.print(dto.ToMovementList(list))
	}, nil
}

func parseConfirm(args []string) (action, error) {
	fs := newFlagSet("confirm")
	file := fs.String("file", "-", "pedido en JSON; - lee de stdin")
	if err := parseFlags(fs, args); err != nil {
		return nil, err
	}
	var (
		body []byte
		err  error
	)
	if *file == "-" {
		body, err = io.ReadAll(os.Stdin)
	} else {
		body, err = os.ReadFile(*file)
	}
	if err != nil {
		return nil, usageError{err}
	}
	var req dto.ConfirmOrderRequest
	if err := json.Unmarshal(body, &req); err != nil {
		return nil, usageError{fmt.Errorf("pedido inválido: %w", err)}
	}
	return func(ctx context.Context, a *app) error {
		res, err := a.orders.ConfirmOrder(ctx, req.ToEntity())
		if err != nil {
			return err
		}
		return a.print(dto.ConfirmOrderResponse{
			OrderID: res.OrderID,
			Remains: dto.ToRemainsList(res.Remains),
			Total:   res.Total.StringFixed(2),
		})
	}, nil
}

type usageError struct{ err error }

func (e usageError) Error() string { return e.err.Error() }
func (e usageError) Unwrap() error { return e.err }

// fail traduce el error a salida JSON y código de salida.
func fail(out io.Writer, log *logger.Logger, cmd string, err error) int {
	var ue usageError
	resp := dto.ErrorResponse{Code: "INTERNAL", Message: err.Error()}
	code := exitError
	switch {
	case errors.As(err, &ue):
		resp.Code = "USAGE"
		code = exitUsageError
	case errors.Is(err, domain.ErrRecordNotFound):
		resp.Code = "UNTRACKED_STOCK"
		code = exitUntracked
	case errors.Is(err, domain.ErrInsufficientStock):
		resp.Code = "INSUFFICIENT_STOCK"
	case errors.Is(err, domain.ErrNoDefaultWarehouse):
		resp.Code = "NO_DEFAULT_WAREHOUSE"
	case errors.Is(err, domain.ErrInvalidInput):
		resp.Code = "VALIDATION"
	case errors.Is(err, domain.ErrNotFound):
		resp.Code = "NOT_FOUND"
	case errors.Is(err, domain.ErrConflict):
		resp.Code = "CONFLICT"
	default:
		log.Error().Err(err).Str("command", cmd).Msg("comando fallido")
	}
	_ = json.NewEncoder(out).Encode(resp)
	return code
}

func (a *app) print(v any) error {
	enc := json.NewEncoder(a.out)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
