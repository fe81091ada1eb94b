// cmd/stratus/main.go
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/cloudformation"
	"github.com/aws/aws-sdk-go-v2/service/cloudfrontkeyvaluestore"
	"github.com/aws/aws-sdk-go-v2/service/dynamodb"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"stratus/internal/audit"
	"stratus/internal/deploy"
	"stratus/internal/policy"
	"stratus/pkg/awsx"
	"stratus/pkg/config"
	"stratus/pkg/db"
	"stratus/pkg/kvs"
	"stratus/pkg/logger"
	"stratus/pkg/naming"
	"stratus/pkg/provision"
	"stratus/pkg/resolve"
	"stratus/pkg/stacks"
)

// KVSArnOutputKey is the service-stack output holding the routing
// store's ARN.
const KVSArnOutputKey = "RoutingKvsArn"

func main() {
	if len(os.Args) < 2 {
		usage()
		os.Exit(2)
	}
	cmd, args := os.Args[1], os.Args[2:]

	settings := config.LoadSettings()
	log := logger.New(settings.Env)
	defer func() { _ = log.Sync() }()

	ctx := context.Background()

	var err error
	switch cmd {
	case "resolve":
		err = runResolve(ctx, settings, log, args)
	case "names":
		err = runNames(ctx, settings, log, args)
	case "deploy":
		err = runDeploy(ctx, settings, log, args)
	case "provision":
		err = runProvision(ctx, settings, log, args)
	default:
		usage()
		os.Exit(2)
	}
	if err != nil {
		log.Fatalw(cmd+" failed", "err", err)
	}
}

func usage() {
	fmt.Fprintln(os.Stderr, `usage: stratus <command> [flags]

commands:
  resolve    build and print a tenant's domain document
  names      print the resource names a tenant's document implies
  deploy     deploy stacks in order, provision resources, publish to KVS
  provision  ensure buckets/tables exist without deploying stacks`)
}

// setup loads the system document and builds the stack-output reader.
// aws is nil when running from a STACK_OUTPUTS_JSON seed.
func setup(ctx context.Context, settings config.Settings, log logger.Sugared) (*config.SystemConfig, stacks.Reader, *aws.Config, error) {
	cfg, err := config.LoadFrom(".", log)
	if err != nil {
		return nil, nil, nil, err
	}
	if settings.StackOutputsSeed != "" {
		reader, err := stacks.NewMemoryReaderFromJSON(settings.StackOutputsSeed)
		return cfg, reader, nil, err
	}
	awsCfg, err := awsx.Load(ctx, cfg.Profile, "")
	if err != nil {
		return nil, nil, nil, err
	}
	if err := cfg.CheckRegion(awsCfg.Region); err != nil {
		return nil, nil, nil, err
	}
	reader := stacks.NewCloudFormationReader(cloudformation.NewFromConfig(awsCfg), log)
	return cfg, reader, &awsCfg, nil
}

func runResolve(ctx context.Context, settings config.Settings, log logger.Sugared, args []string) error {
	fs := flag.NewFlagSet("resolve", flag.ExitOnError)
	tenant := fs.String("tenant", "", "tenant key (required)")
	out := fs.String("out", "", "write the document to this file instead of stdout")
	_ = fs.Parse(args)
	if *tenant == "" {
		return fmt.Errorf("-tenant is required")
	}

	cfg, reader, _, err := setup(ctx, settings, log)
	if err != nil {
		return err
	}
	doc, err := resolve.NewWalker(cfg, reader, log).BuildTenantDocument(ctx, *tenant)
	if err != nil {
		return err
	}
	if *out != "" {
		sink := kvs.NewFileSink(*out)
		if err := kvs.Publish(ctx, sink, doc); err != nil {
			return err
		}
		return sink.Flush()
	}
	raw, err := doc.Marshal()
	if err != nil {
		return err
	}
	fmt.Println(string(raw))
	return nil
}

func runNames(ctx context.Context, settings config.Settings, log logger.Sugared, args []string) error {
	fs := flag.NewFlagSet("names", flag.ExitOnError)
	tenant := fs.String("tenant", "", "tenant key (required)")
	_ = fs.Parse(args)
	if *tenant == "" {
		return fmt.Errorf("-tenant is required")
	}

	cfg, reader, _, err := setup(ctx, settings, log)
	if err != nil {
		return err
	}
	doc, err := resolve.NewWalker(cfg, reader, log).BuildTenantDocument(ctx, *tenant)
	if err != nil {
		return err
	}
	out := map[string][]naming.Name{}
	for domain, e := range doc {
		out[domain] = naming.AllNames(e)
	}
	raw, _ := json.MarshalIndent(out, "", "  ")
	fmt.Println(string(raw))
	return nil
}

func runDeploy(ctx context.Context, settings config.Settings, log logger.Sugared, args []string) error {
	fs := flag.NewFlagSet("deploy", flag.ExitOnError)
	tenant := fs.String("tenant", "", "restrict to one tenant (default: all)")
	policyPath := fs.String("policy", "", "rego policy file gating the publish")
	out := fs.String("out", "", "write the document to a file instead of CloudFront KVS")
	dryRun := fs.Bool("dry-run", false, "skip stack deployment and provisioning")
	_ = fs.Parse(args)

	cfg, reader, awsCfg, err := setup(ctx, settings, log)
	if err != nil {
		return err
	}
	walker := resolve.NewWalker(cfg, reader, log)

	gate, err := policy.NewGateFromFile(*policyPath)
	if err != nil {
		return err
	}

	var deployer deploy.StackDeployer = deploy.ExecDeployer{Cmd: settings.DeployCmd}
	var prov *provision.Provisioner
	var sink kvs.Sink
	var fileSink *kvs.FileSink

	if *dryRun || awsCfg == nil {
		deployer = deploy.NopDeployer{}
		path := *out
		if path == "" {
			path = "stratus.generated.json"
		}
		fileSink = kvs.NewFileSink(path)
		sink = fileSink
	} else {
		prov = provision.New(s3.NewFromConfig(*awsCfg), dynamodb.NewFromConfig(*awsCfg), cfg.Region, log)
		if *out != "" {
			fileSink = kvs.NewFileSink(*out)
			sink = fileSink
		} else {
			outputs, err := reader.GetOutputs(ctx, cfg.ServiceStackName())
			if err != nil {
				return err
			}
			arn, ok := outputs[KVSArnOutputKey]
			if !ok {
				return fmt.Errorf("output %q not found in %s", KVSArnOutputKey, cfg.ServiceStackName())
			}
			sink = kvs.NewCloudFrontSink(cloudfrontkeyvaluestore.NewFromConfig(*awsCfg), arn, log)
		}
	}

	var store audit.Store = audit.NewMemoryStore()
	if pool := db.MustConnect(settings, log); pool != nil {
		if err := audit.EnsureSchema(ctx, pool); err != nil {
			return err
		}
		store = audit.NewPostgresStore(pool, log)
	}

	seq := deploy.NewSequencer(cfg, deployer, walker, prov, sink, gate, store, log)
	run, err := seq.Run(ctx, *tenant)
	if err != nil {
		return err
	}
	if fileSink != nil {
		if err := fileSink.Flush(); err != nil {
			return err
		}
	}
	log.Infow("deploy finished", "run", run.ID, "status", run.Status, "documentHash", run.DocumentHash)
	return nil
}

func runProvision(ctx context.Context, settings config.Settings, log logger.Sugared, args []string) error {
	fs := flag.NewFlagSet("provision", flag.ExitOnError)
	tenant := fs.String("tenant", "", "tenant key (required)")
	_ = fs.Parse(args)
	if *tenant == "" {
		return fmt.Errorf("-tenant is required")
	}

	cfg, reader, awsCfg, err := setup(ctx, settings, log)
	if err != nil {
		return err
	}
	if awsCfg == nil {
		return fmt.Errorf("provision requires AWS credentials (unset STACK_OUTPUTS_JSON)")
	}
	doc, err := resolve.NewWalker(cfg, reader, log).BuildTenantDocument(ctx, *tenant)
	if err != nil {
		return err
	}
	prov := provision.New(s3.NewFromConfig(*awsCfg), dynamodb.NewFromConfig(*awsCfg), cfg.Region, log)
	for _, e := range doc {
		if err := prov.EnsureEntry(ctx, e); err != nil {
			return err
		}
	}
	return nil
}
