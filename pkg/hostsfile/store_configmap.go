package hostsfile

import (
	"context"
	"errors"
	"fmt"
	"os"
	"sync"

	corev1 "k8s.io/api/core/v1"
	apierrors "k8s.io/apimachinery/pkg/api/errors"
	metav1 "k8s.io/apimachinery/pkg/apis/meta/v1"
	"k8s.io/client-go/kubernetes"
	typedcorev1 "k8s.io/client-go/kubernetes/typed/core/v1"
)

const configMapHostsFileKey = "hosts"

// Keeps the hosts file under the "hosts" key of a ConfigMap. Writes carry the
// resourceVersion seen by the last Read, so a concurrent edit from somewhere
// else makes the write fail with a conflict instead of being overwritten.
type ConfigMapStore struct {
	namespace       string
	name            string
	configMapClient typedcorev1.ConfigMapInterface

	lock *sync.Mutex
	// State of the ConfigMap as of the last Read.
	last *corev1.ConfigMap
}

func NewConfigMapStore(clientset kubernetes.Interface, namespace, name string) *ConfigMapStore {
	mutex := sync.Mutex{}
	return &ConfigMapStore{
		namespace:       namespace,
		name:            name,
		configMapClient: clientset.CoreV1().ConfigMaps(namespace),
		lock:            &mutex,
	}
}

func (cs *ConfigMapStore) Name() string {
	return fmt.Sprintf("configmap/%s/%s", cs.namespace, cs.name)
}

func (cs *ConfigMapStore) Read(ctx context.Context) (string, error) {
	cm, err := cs.get(ctx, cs.name)
	cs.last = cm
	if err != nil {
		return "", err
	}

	contents, ok := cm.Data[configMapHostsFileKey]
	if !ok {
		return "", fmt.Errorf("ConfigMap %s/%s has no key %s: %w", cs.namespace, cs.name, configMapHostsFileKey, os.ErrNotExist)
	}

	return contents, nil
}

func (cs *ConfigMapStore) Rewrite(ctx context.Context, contents string) error {
	updated, err := cs.write(ctx, cs.name, cs.last, contents)
	if err != nil {
		return err
	}
	cs.last = updated
	return nil
}

// ConfigMaps can't be appended to, so this reads the current text and
// writes it back with the line added. Like a file append, the text is
// taken as is; callers add any missing newline themselves.
func (cs *ConfigMapStore) Append(ctx context.Context, line string) error {
	contents, err := cs.Read(ctx)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}

	return cs.Rewrite(ctx, contents+line)
}

func (cs *ConfigMapStore) Backup(ctx context.Context) (string, error) {
	contents, err := cs.Read(ctx)
	if errors.Is(err, os.ErrNotExist) {
		return "", ErrNothingToBackup
	} else if err != nil {
		return "", err
	}

	backupName := cs.name + ".bak"
	existing, err := cs.get(ctx, backupName)
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", err
	}

	if _, err := cs.write(ctx, backupName, existing, contents); err != nil {
		return "", err
	}

	return fmt.Sprintf("configmap/%s/%s", cs.namespace, backupName), nil
}

func (cs *ConfigMapStore) Lock(ctx context.Context) (func() error, error) {
	cs.lock.Lock()
	return func() error {
		cs.lock.Unlock()
		return nil
	}, nil
}

// Returns a nil ConfigMap and an error wrapping os.ErrNotExist when there is
// no such ConfigMap.
func (cs *ConfigMapStore) get(ctx context.Context, name string) (*corev1.ConfigMap, error) {
	cm, err := cs.configMapClient.Get(ctx, name, metav1.GetOptions{})
	if apierrors.IsNotFound(err) {
		return nil, fmt.Errorf("ConfigMap %s/%s: %w", cs.namespace, name, os.ErrNotExist)
	} else if err != nil {
		return nil, fmt.Errorf("error reading ConfigMap %s/%s: %w", cs.namespace, name, err)
	}
	return cm, nil
}

// Creates the ConfigMap when existing is nil, otherwise updates existing in
// place, keeping any keys other than the hosts one.
func (cs *ConfigMapStore) write(ctx context.Context, name string, existing *corev1.ConfigMap, contents string) (*corev1.ConfigMap, error) {
	if existing == nil {
		cm := &corev1.ConfigMap{
			ObjectMeta: metav1.ObjectMeta{
				Name:      name,
				Namespace: cs.namespace,
			},
			Data: map[string]string{
				configMapHostsFileKey: contents,
			},
		}

		created, err := cs.configMapClient.Create(ctx, cm, metav1.CreateOptions{})
		if err != nil {
			return nil, fmt.Errorf("couldn't create ConfigMap %s/%s: %w", cs.namespace, name, err)
		}
		return created, nil
	}

	cm := existing.DeepCopy()
	if cm.Data == nil {
		cm.Data = map[string]string{}
	}
	cm.Data[configMapHostsFileKey] = contents

	updated, err := cs.configMapClient.Update(ctx, cm, metav1.UpdateOptions{})
	if err != nil {
		return nil, fmt.Errorf("couldn't update ConfigMap %s/%s: %w", cs.namespace, name, err)
	}
	return updated, nil
}
