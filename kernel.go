package gevents

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"os/signal"
	"reflect"
	"syscall"
	"time"

	"github.com/bassbeaver/gevents/config"
	kernelError "github.com/bassbeaver/gevents/error"
	"github.com/bassbeaver/gevents/event_bus"
	"github.com/bassbeaver/gevents/event_bus/event"
	"github.com/bassbeaver/gevents/event_bus/listener"
	"github.com/bassbeaver/gevents/helper"
	"github.com/bassbeaver/gevents/logging"
	"github.com/bassbeaver/gioc"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/viper"
)

const (
	serviceName                    = "gevents"
	configDefaultShutdownTimeoutMs = 500
	defaultReadHeaderTimeoutMs     = 5000
	defaultIdleTimeoutMs           = 15000
)

type Kernel struct {
	config          *viper.Viper
	container       *gioc.Container
	registry        *event_bus.EventRegistry
	metricsRegistry *prometheus.Registry
	logger          *slog.Logger
	closeLogger     func() error
	httpServer      *http.Server
	listenersLoaded bool
}

func (k *Kernel) GetContainer() *gioc.Container {
	return k.container
}

func (k *Kernel) GetRegistry() *event_bus.EventRegistry {
	return k.registry
}

func (k *Kernel) GetLogger() *slog.Logger {
	return k.logger
}

func (k *Kernel) GetHttpServer() *http.Server {
	return k.httpServer
}

func (k *Kernel) HasServiceConfig(alias string) bool {
	return k.config.IsSet("services." + alias)
}

func (k *Kernel) RegisterService(alias string, factoryMethod interface{}, enableCaching bool) error {
	return helper.RegisterService(
		k.config,
		k.container,
		alias,
		factoryMethod,
		enableCaching,
	)
}

// RegisterListener registers listenerFunc under tag. listenerFunc may be any function accepted by
// listener.FromFunc.
func (k *Kernel) RegisterListener(tag string, listenerFunc interface{}, priority uint8) (int, error) {
	action, actionError := listener.FromFunc(listenerFunc, priority)
	if nil != actionError {
		return -1, actionError
	}

	return k.registry.RegisterAction(tag, action)
}

// LoadListeners registers the listeners declared under event_listeners. Services they refer to
// must be registered before. Every declaration is resolved before the first one is registered, so
// a failing call leaves the registry unchanged. Calling it again after a success does nothing.
func (k *Kernel) LoadListeners() error {
	if k.listenersLoaded {
		return nil
	}

	if noCycles, cycledService := k.container.CheckCycles(); !noCycles {
		return kernelError.NewConfigError("errors in DI container: service %s has circular dependencies", cycledService)
	}

	if k.config.IsSet("event_listeners") {
		listenersConfig := make([]config.EventListenerConfig, 0)
		listenersConfigErr := k.config.UnmarshalKey("event_listeners", &listenersConfig)
		if nil != listenersConfigErr {
			return kernelError.NewConfigError("failed to read event listeners config, error: %s", listenersConfigErr.Error())
		}

		actions := make([]*listener.Action, 0, len(listenersConfig))
		for _, listenerConfig := range listenersConfig {
			action, listenerError := k.resolveConfiguredListener(listenerConfig)
			if nil != listenerError {
				return kernelError.NewConfigError(
					"failed to register event listener %s, event: %s, error: %s",
					listenerConfig.Listener,
					listenerConfig.EventName,
					listenerError.Error(),
				)
			}
			actions = append(actions, action)
		}

		for actionIndex, action := range actions {
			if _, registerError := k.registry.RegisterAction(listenersConfig[actionIndex].EventName, action); nil != registerError {
				for registeredIndex := 0; registeredIndex < actionIndex; registeredIndex++ {
					k.registry.UnregisterAction(listenersConfig[registeredIndex].EventName, actions[registeredIndex])
				}

				return kernelError.NewConfigError(
					"failed to register event listener %s, event: %s, error: %s",
					listenersConfig[actionIndex].Listener,
					listenersConfig[actionIndex].EventName,
					registerError.Error(),
				)
			}
		}
	}

	k.listenersLoaded = true

	return nil
}

func (k *Kernel) resolveConfiguredListener(listenerConfig config.EventListenerConfig) (*listener.Action, error) {
	if validationError := listenerConfig.Validate(); nil != validationError {
		return nil, validationError
	}
	priority, _ := listenerConfig.ListenerPriority()

	listenerObj, serviceError := k.getService(listenerConfig.ListenerAlias())
	if nil != serviceError {
		return nil, serviceError
	}

	listenerMethodValue := reflect.ValueOf(listenerObj).MethodByName(listenerConfig.ListenerMethod())
	if !listenerMethodValue.IsValid() {
		return nil, fmt.Errorf("method %s not found in service %s", listenerConfig.ListenerMethod(), listenerConfig.ListenerAlias())
	}

	return listener.FromFunc(listenerMethodValue.Interface(), priority)
}

// getService resolves alias from the container, which panics for unknown aliases and failing
// factories.
func (k *Kernel) getService(alias string) (serviceObj interface{}, serviceError error) {
	defer func() {
		// Recover should be called directly by a deferred function. https://golang.org/ref/spec#Handling_panics
		if recovered := recover(); nil != recovered {
			serviceObj = nil
			serviceError = fmt.Errorf("service %s not found: %v", alias, recovered)
		}
	}()

	serviceObj = k.container.GetByAlias(alias)
	if nil == serviceObj {
		return nil, fmt.Errorf("service %s not found", alias)
	}

	return serviceObj, nil
}

// Launch loads the configured listeners and triggers kernelEvent.ApplicationLaunched.
func (k *Kernel) Launch(ctx context.Context) error {
	if loadError := k.LoadListeners(); nil != loadError {
		return loadError
	}

	return k.registry.TriggerContext(
		ctx,
		event_bus.KernelEventApplicationLaunched,
		event.NewApplicationLaunched(k, k.registry.Tags()),
	)
}

// Terminate triggers kernelEvent.ApplicationTermination, closes the log output and returns
// terminationErrors joined with the errors listeners added.
func (k *Kernel) Terminate(ctx context.Context, terminationErrors []error) error {
	terminationEvent := event.NewApplicationTermination(k, &terminationErrors)

	triggerError := k.registry.TriggerContext(ctx, event_bus.KernelEventApplicationTermination, terminationEvent)
	if nil != triggerError {
		terminationErrors = append(terminationErrors, triggerError)
	}

	if closeError := k.closeLogger(); nil != closeError {
		terminationErrors = append(terminationErrors, closeError)
	}

	return errors.Join(terminationErrors...)
}

// Run launches the kernel, serves the inspection API when inspect.http_port is configured and
// terminates on SIGINT or SIGTERM.
func (k *Kernel) Run() error {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if launchError := k.Launch(ctx); nil != launchError {
		kernelError.LogError(k.logger, "failed to launch", launchError)
		return launchError
	}

	terminationErrors := make([]error, 0)
	if k.config.IsSet("inspect.http_port") {
		if serveError := k.Serve(ctx); nil != serveError {
			terminationErrors = append(terminationErrors, serveError)
		}
	} else {
		<-ctx.Done()
	}

	return k.Terminate(context.Background(), terminationErrors)
}

func (k *Kernel) Serve(ctx context.Context) error {
	inspectConfig, configError := k.inspectConfig()
	if nil != configError {
		return configError
	}

	netListener, listenError := net.Listen("tcp", fmt.Sprintf(":%d", inspectConfig.HttpPort))
	if nil != listenError {
		return listenError
	}

	return k.ServeListener(ctx, netListener)
}

// ServeListener serves the inspection API on netListener until ctx is done, then shuts the server
// down within shutdown_timeout milliseconds.
func (k *Kernel) ServeListener(ctx context.Context, netListener net.Listener) error {
	inspectConfig, configError := k.inspectConfig()
	if nil != configError {
		return configError
	}
	requestTimeout, timeoutError := inspectConfig.Timeout()
	if nil != timeoutError {
		return kernelError.NewConfigError("invalid inspect config, error: %s", timeoutError.Error())
	}

	timeoutErrorObj := kernelError.NewServiceUnavailableHttpError("request timeout")
	k.httpServer.Handler = http.TimeoutHandler(k.Handler(), requestTimeout, timeoutErrorObj.Message())

	serveErrors := make(chan error, 1)
	go func() {
		serveErrors <- k.httpServer.Serve(netListener)
	}()
	k.logger.Info("inspection server started", "addr", netListener.Addr().String())

	select {
	case serveError := <-serveErrors:
		if errors.Is(serveError, http.ErrServerClosed) {
			return nil
		}
		return serveError
	case <-ctx.Done():
	}

	shutdownTimeout := time.Duration(k.config.GetInt("shutdown_timeout"))
	if 0 >= shutdownTimeout {
		shutdownTimeout = configDefaultShutdownTimeoutMs
	}
	shutdownTimeout = shutdownTimeout * time.Millisecond

	shutdownContext, shutdownContextCancelFunc := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownContextCancelFunc()

	shutdownError := k.httpServer.Shutdown(shutdownContext)
	<-serveErrors
	k.logger.Info("inspection server stopped")

	if nil != shutdownError {
		if errors.Is(shutdownError, context.DeadlineExceeded) {
			return fmt.Errorf("gevents: graceful shutdown timeout of %s expired", shutdownTimeout)
		}
		return shutdownError
	}

	return nil
}

func (k *Kernel) inspectConfig() (config.InspectConfig, error) {
	inspectConfig := config.InspectConfig{}
	if unmarshalError := k.config.UnmarshalKey("inspect", &inspectConfig); nil != unmarshalError {
		return inspectConfig, kernelError.NewConfigError("failed to read inspect config, error: %s", unmarshalError.Error())
	}

	return inspectConfig, nil
}

//--------------------

func NewKernel(configPath string) (*Kernel, error) {
	configObj, configBuildError := helper.BuildConfigFromDir(configPath)
	if nil != configBuildError {
		return nil, configBuildError
	}

	return NewKernelFromConfig(configObj)
}

func NewKernelFromConfig(configObj *viper.Viper) (*Kernel, error) {
	kernelConfig := viper.New()

	// Copy known config parts to kernel's viper object
	func(params []string, source, target *viper.Viper) {
		for _, param := range params {
			if source.IsSet(param) {
				target.Set(param, source.Get(param))
			}
		}
	}(
		[]string{"services", "event_listeners", "registry", "logging", "inspect", "shutdown_timeout"},
		configObj,
		kernelConfig,
	)

	loggingConfig := config.LoggingConfig{}
	if unmarshalError := kernelConfig.UnmarshalKey("logging", &loggingConfig); nil != unmarshalError {
		return nil, kernelError.NewConfigError("failed to read logging config, error: %s", unmarshalError.Error())
	}
	logger, closeLogger, loggingError := logging.Setup(serviceName, loggingConfig)
	if nil != loggingError {
		return nil, kernelError.NewConfigError("failed to set up logging, error: %s", loggingError.Error())
	}

	registryConfig := config.RegistryConfig{}
	if unmarshalError := kernelConfig.UnmarshalKey("registry", &registryConfig); nil != unmarshalError {
		return nil, kernelError.NewConfigError("failed to read registry config, error: %s", unmarshalError.Error())
	}
	donePolicy, donePolicyError := event_bus.ParseDonePolicy(registryConfig.DonePolicy)
	if nil != donePolicyError {
		return nil, kernelError.NewConfigError("invalid registry config, error: %s", donePolicyError.Error())
	}

	metricsRegistry := prometheus.NewRegistry()
	metricsRegistry.MustRegister(collectors.NewGoCollector())

	kernel := &Kernel{
		config:          kernelConfig,
		container:       gioc.NewContainer(),
		metricsRegistry: metricsRegistry,
		logger:          logger,
		closeLogger:     closeLogger,
		httpServer: &http.Server{
			ReadHeaderTimeout: defaultReadHeaderTimeoutMs * time.Millisecond,
			IdleTimeout:       defaultIdleTimeoutMs * time.Millisecond,
		},
		registry: event_bus.NewEventRegistry(
			event_bus.WithLogger(logger.With("component", "event_bus")),
			event_bus.WithMetrics(event_bus.NewMetrics(metricsRegistry)),
			event_bus.WithDonePolicy(donePolicy),
		),
	}

	// Setting parameters to container
	if configObj.IsSet("parameters") {
		parametersStringMap := configObj.GetStringMapString("parameters")
		kernel.container.SetParameters(parametersStringMap)
	}

	return kernel, nil
}
