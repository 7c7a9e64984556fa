package kube

import (
	"errors"
	"fmt"
	"os"

	"k8s.io/apimachinery/pkg/runtime/schema"
	"k8s.io/client-go/kubernetes"
	"k8s.io/client-go/rest"
)

const serviceAccountTokenPath = "/var/run/secrets/kubernetes.io/serviceaccount/token"

var ErrNoServer = errors.New("kubernetes API server host must be provided")

// Everything needed to talk to the cluster holding the hosts ConfigMap.
type ClientConfig struct {
	RestConfig          *rest.Config
	KubernetesClientSet kubernetes.Interface
}

// Uses the service account mounted into the pod this is running in.
func NewClientConfigInCluster() (*ClientConfig, error) {
	if _, err := os.Stat(serviceAccountTokenPath); err != nil {
		return nil, fmt.Errorf("service account token %s: %w", serviceAccountTokenPath, err)
	}

	config, err := rest.InClusterConfig()
	if err != nil {
		return nil, fmt.Errorf("loading in-cluster config: %w", err)
	}

	return newClientConfig(config)
}

// Talks to the API server at host with a bearer token. The server's
// certificate isn't verified.
func NewClientConfig(host, bearerToken string) (*ClientConfig, error) {
	if host == "" {
		return nil, ErrNoServer
	}

	config := rest.Config{BearerToken: bearerToken}
	config.TLSClientConfig.Insecure = true
	if err := rest.SetKubernetesDefaults(&config); err != nil {
		return nil, fmt.Errorf("applying client defaults: %w", err)
	}

	serverURL, apiPath, err := rest.DefaultServerURL(host, "v1", schema.GroupVersion{}, true)
	if err != nil {
		return nil, fmt.Errorf("parsing API server host %q: %w", host, err)
	}
	config.Host = serverURL.String()
	config.APIPath = apiPath

	return newClientConfig(&config)
}

func newClientConfig(config *rest.Config) (*ClientConfig, error) {
	clientset, err := kubernetes.NewForConfig(config)
	if err != nil {
		return nil, fmt.Errorf("building clientset for %s: %w", config.Host, err)
	}

	cc := ClientConfig{config, clientset}
	return &cc, nil
}
